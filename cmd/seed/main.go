package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"skillbridge-billing/internal/config"
	"skillbridge-billing/internal/domain/model"
	pg "skillbridge-billing/internal/infra/db/postgres"
	"skillbridge-billing/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := pg.Migrate(cfg.Database.URL); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planUC := usecase.NewPlanUseCase(pg.NewPlanRepo(pool))

	plans, err := planUC.ListAll(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (%s, days=%d, price=%s KES)\n", p.Name, p.Audience, p.DurationDays, p.PriceKES.StringFixed(2))
		}
		return
	}

	seed := []*model.Plan{
		{Name: "Client Monthly", Audience: model.PlanAudienceClient, PriceKES: decimal.NewFromInt(500), DurationDays: 30, Active: true},
		{Name: "Pro Starter", Audience: model.PlanAudienceProfessional, PriceKES: decimal.NewFromInt(1000), DurationDays: 30, Active: true},
		{Name: "Pro Quarterly", Audience: model.PlanAudienceProfessional, PriceKES: decimal.NewFromInt(2500), DurationDays: 90, Active: true},
	}

	for _, p := range seed {
		if err := planUC.Save(ctx, p); err != nil {
			log.Fatalf("seed plan %q: %v", p.Name, err)
		}
		fmt.Printf("seeded: %s (id=%d, days=%d, price=%s KES)\n", p.Name, p.ID, p.DurationDays, p.PriceKES.StringFixed(2))
	}

	fmt.Println("Seeding complete.")
}
