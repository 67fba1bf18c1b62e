package web

import (
	"context"

	"github.com/rs/zerolog"

	"skillbridge-billing/internal/config"
	"skillbridge-billing/internal/domain/model"
)

// stubReconciler returns a canned error per call.
type stubReconciler struct {
	err   error
	calls int
	last  []byte
}

func (s *stubReconciler) ProcessCallback(ctx context.Context, raw []byte) error {
	s.calls++
	s.last = append([]byte(nil), raw...)
	return s.err
}

type stubPlanUC struct {
	active []*model.Plan
	all    []*model.Plan
	err    error
}

func (s *stubPlanUC) ListActive(ctx context.Context, audience model.PlanAudience) ([]*model.Plan, error) {
	if s.err != nil {
		return nil, s.err
	}
	if audience == "" {
		return s.active, nil
	}
	var out []*model.Plan
	for _, p := range s.active {
		if p.Audience == audience {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPlanUC) ListAll(ctx context.Context) ([]*model.Plan, error) { return s.all, s.err }

func (s *stubPlanUC) FindByID(ctx context.Context, id int64) (*model.Plan, error) {
	return nil, s.err
}

func (s *stubPlanUC) Save(ctx context.Context, plan *model.Plan) error { return s.err }

func (s *stubPlanUC) Deactivate(ctx context.Context, id int64) error { return s.err }

func newTestServer(rec *stubReconciler, plans *stubPlanUC) *Server {
	logger := zerolog.Nop()
	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AdminAPIKey = "admin-key"
	cfg.RateLimit.InitiatePerMinute = 5
	if rec == nil {
		rec = &stubReconciler{}
	}
	if plans == nil {
		plans = &stubPlanUC{}
	}
	return NewServer(cfg, nil, rec, nil, plans, nil, nil, nil, &logger)
}
