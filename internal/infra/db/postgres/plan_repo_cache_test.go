package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/repository"
	"skillbridge-billing/internal/infra/metrics"
)

// stubPlanRepo serves a single plan and counts lookups.
type stubPlanRepo struct {
	plan  *model.Plan
	calls int
}

func (s *stubPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	return nil
}

func (s *stubPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Plan, error) {
	s.calls++
	if s.plan == nil || s.plan.ID != id {
		return nil, domain.ErrNotFound
	}
	cp := *s.plan
	return &cp, nil
}

func (s *stubPlanRepo) ListActive(ctx context.Context, tx repository.Tx, audience model.PlanAudience) ([]*model.Plan, error) {
	s.calls++
	if s.plan == nil {
		return nil, nil
	}
	cp := *s.plan
	return []*model.Plan{&cp}, nil
}

func (s *stubPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	return nil, nil
}

func (s *stubPlanRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	return nil
}

// stubCache is a programmable red.Client: Get serves getVal/getErr, writes
// are recorded.
type stubCache struct {
	getVal string
	getErr error
	sets   int
}

func (c *stubCache) Ping(ctx context.Context) error { return nil }

func (c *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.sets++
	return nil
}

func (c *stubCache) Get(ctx context.Context, key string) (string, error) {
	return c.getVal, c.getErr
}

func (c *stubCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}

func (c *stubCache) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }

func (c *stubCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}

func (c *stubCache) Del(ctx context.Context, keys ...string) error { return nil }

func (c *stubCache) Eval(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	return nil, nil
}

func (c *stubCache) Close() error { return nil }

func cachedPlan() *model.Plan {
	return &model.Plan{
		ID:           1,
		Name:         "Client Monthly",
		Audience:     model.PlanAudienceClient,
		PriceKES:     decimal.NewFromInt(500),
		DurationDays: 30,
		Features:     []byte("{}"),
		Active:       true,
	}
}

// planCacheOutcome reads cache_requests_total{entity="plan",outcome=...}
// from the default registry.
func planCacheOutcome(t *testing.T, outcome string) float64 {
	t.Helper()
	fams, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range fams {
		if fam.GetName() != "cache_requests_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["entity"] == "plan" && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func outcomeSnapshot(t *testing.T) map[string]float64 {
	t.Helper()
	return map[string]float64{
		"hit":   planCacheOutcome(t, "hit"),
		"miss":  planCacheOutcome(t, "miss"),
		"error": planCacheOutcome(t, "error"),
	}
}

// Each lookup must record exactly one cache outcome.
func TestPlanCacheSingleOutcomePerLookup(t *testing.T) {
	metrics.MustRegister()

	valid, err := json.Marshal(cachedPlan())
	if err != nil {
		t.Fatalf("marshal plan: %v", err)
	}

	cases := []struct {
		name        string
		cache       *stubCache
		wantOutcome string
		wantInner   int
	}{
		{"hit", &stubCache{getVal: string(valid)}, "hit", 0},
		{"absent entry", &stubCache{getErr: redis.Nil}, "miss", 1},
		{"corrupt entry", &stubCache{getVal: "not json"}, "miss", 1},
		{"redis down", &stubCache{getErr: errors.New("connection refused")}, "error", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inner := &stubPlanRepo{plan: cachedPlan()}
			repo := NewPlanRepoCacheDecorator(inner, tc.cache, time.Minute)

			before := outcomeSnapshot(t)
			if _, err := repo.FindByID(context.Background(), repository.NoTX, 1); err != nil {
				t.Fatalf("find: %v", err)
			}
			after := outcomeSnapshot(t)

			for outcome := range after {
				want := 0.0
				if outcome == tc.wantOutcome {
					want = 1.0
				}
				if got := after[outcome] - before[outcome]; got != want {
					t.Errorf("outcome %s incremented by %v, want %v", outcome, got, want)
				}
			}
			if inner.calls != tc.wantInner {
				t.Errorf("inner lookups = %d, want %d", inner.calls, tc.wantInner)
			}
		})
	}
}
