package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/repository"
	"skillbridge-billing/internal/infra/metrics"
	red "skillbridge-billing/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches the read-mostly plan catalog in redis.
// Writes invalidate both the per-plan key and the list keys.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.Client
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.Client, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Plan, error) {
	key := fmt.Sprintf("plan:%d", id)
	// Exactly one outcome per lookup: hit, miss (absent or undecodable
	// entry) or error.
	switch val, err := d.cache.Get(ctx, key); {
	case err == nil:
		var plan model.Plan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
		metrics.IncCacheRequest("plan", "miss")
	case err == redis.Nil:
		metrics.IncCacheRequest("plan", "miss")
	default:
		metrics.IncCacheRequest("plan", "error")
	}

	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(plan); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx, audience model.PlanAudience) ([]*model.Plan, error) {
	key := fmt.Sprintf("plans:active:%s", audience)
	switch val, err := d.cache.Get(ctx, key); {
	case err == nil:
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
		metrics.IncCacheRequest("plan_list", "miss")
	case err == redis.Nil:
		metrics.IncCacheRequest("plan_list", "miss")
	default:
		metrics.IncCacheRequest("plan_list", "error")
	}

	plans, err := d.inner.ListActive(ctx, tx, audience)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if b, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return plans, nil
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	return d.inner.ListAll(ctx, tx)
}

func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	d.invalidate(ctx, plan.ID)
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	d.invalidate(ctx, id)
	return d.inner.Delete(ctx, tx, id)
}

func (d *planRepoCacheDecorator) invalidate(ctx context.Context, id int64) {
	_ = d.cache.Del(ctx,
		fmt.Sprintf("plan:%d", id),
		fmt.Sprintf("plans:active:%s", model.PlanAudienceClient),
		fmt.Sprintf("plans:active:%s", model.PlanAudienceProfessional),
		"plans:active:",
	)
}
