package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/adapter"
	"skillbridge-billing/internal/domain/ports/repository"
)

func seedPlan(t *testing.T, plans *memPlanRepo, active bool) *model.Plan {
	t.Helper()
	p := &model.Plan{
		Name:         "Pro Starter",
		Audience:     model.PlanAudienceProfessional,
		PriceKES:     decimal.NewFromInt(1000),
		DurationDays: 30,
		Active:       active,
	}
	if err := plans.Save(context.Background(), repository.NoTX, p); err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	return p
}

func TestInitiateCreatesPendingWithCheckoutID(t *testing.T) {
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	gw := &mockGateway{result: adapter.StkPushResult{CheckoutRequestID: "ws_CO_1"}}
	uc := NewPaymentUseCase(payments, plans, gw, newTestLogger())

	plan := seedPlan(t, plans, true)

	p, err := uc.Initiate(context.Background(), 7, 9, plan.ID, "254712345678")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if p.Status != model.PaymentStatusPending {
		t.Fatalf("status = %s, want PENDING", p.Status)
	}
	if p.CheckoutRequestID == nil || *p.CheckoutRequestID != "ws_CO_1" {
		t.Fatalf("checkout request id not stored: %v", p.CheckoutRequestID)
	}
	if !p.AmountKES.Equal(plan.PriceKES) {
		t.Fatalf("amount = %s, want %s", p.AmountKES, plan.PriceKES)
	}
	if !strings.HasPrefix(p.AccountReference, "u7-p9-pl1-") {
		t.Fatalf("account reference = %q", p.AccountReference)
	}

	stored, err := payments.FindByID(context.Background(), repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("stored payment: %v", err)
	}
	if stored.CheckoutRequestID == nil || *stored.CheckoutRequestID != "ws_CO_1" {
		t.Fatalf("stored checkout request id = %v", stored.CheckoutRequestID)
	}
}

func TestInitiateInactivePlan(t *testing.T) {
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	uc := NewPaymentUseCase(payments, plans, &mockGateway{}, newTestLogger())

	plan := seedPlan(t, plans, false)

	if _, err := uc.Initiate(context.Background(), 7, 9, plan.ID, "254712345678"); !errors.Is(err, domain.ErrPlanInactive) {
		t.Fatalf("err = %v, want ErrPlanInactive", err)
	}
}

func TestInitiatePushFailureMarksFailed(t *testing.T) {
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	gw := &mockGateway{pushErr: domain.ErrGatewayUnavailable}
	uc := NewPaymentUseCase(payments, plans, gw, newTestLogger())

	plan := seedPlan(t, plans, true)

	p, err := uc.Initiate(context.Background(), 7, 9, plan.ID, "254712345678")
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
	if p == nil {
		t.Fatal("payment record not returned on push failure")
	}

	stored, err := payments.FindByID(context.Background(), repository.NoTX, p.ID)
	if err != nil {
		t.Fatalf("stored payment: %v", err)
	}
	if stored.Status != model.PaymentStatusFailed {
		t.Fatalf("stored status = %s, want FAILED", stored.Status)
	}
}

// Two initiations for the same (user, profile, plan) in the same second must
// still carry distinct account references.
func TestInitiateDistinctAccountReferences(t *testing.T) {
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	gw := &mockGateway{result: adapter.StkPushResult{CheckoutRequestID: "ws_CO_1"}}
	uc := NewPaymentUseCase(payments, plans, gw, newTestLogger())

	plan := seedPlan(t, plans, true)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		p, err := uc.Initiate(context.Background(), 7, 9, plan.ID, "254712345678")
		if err != nil {
			t.Fatalf("initiate %d: %v", i, err)
		}
		if seen[p.AccountReference] {
			t.Fatalf("duplicate account reference %q", p.AccountReference)
		}
		seen[p.AccountReference] = true
	}
}

func TestStatusScopedToOwner(t *testing.T) {
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	gw := &mockGateway{result: adapter.StkPushResult{CheckoutRequestID: "ws_CO_1"}}
	uc := NewPaymentUseCase(payments, plans, gw, newTestLogger())

	plan := seedPlan(t, plans, true)
	p, err := uc.Initiate(context.Background(), 7, 9, plan.ID, "254712345678")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if _, err := uc.Status(context.Background(), 7, p.ID); err != nil {
		t.Fatalf("owner status: %v", err)
	}
	if _, err := uc.Status(context.Background(), 8, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stranger status err = %v, want ErrNotFound", err)
	}
}

func TestFailStalePending(t *testing.T) {
	payments := newMemPaymentRepo()
	plans := newMemPlanRepo()
	uc := NewPaymentUseCase(payments, plans, &mockGateway{}, newTestLogger())

	old := &model.Payment{
		ID:        "stale-1",
		UserID:    7,
		Status:    model.PaymentStatusPending,
		AmountKES: decimal.NewFromInt(500),
		CreatedAt: time.Now().UTC().Add(-3 * time.Hour),
	}
	fresh := &model.Payment{
		ID:        "fresh-1",
		UserID:    7,
		Status:    model.PaymentStatusPending,
		AmountKES: decimal.NewFromInt(500),
		CreatedAt: time.Now().UTC(),
	}
	for _, p := range []*model.Payment{old, fresh} {
		if err := payments.Save(context.Background(), repository.NoTX, p); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	n, err := uc.FailStalePending(context.Background(), time.Now().UTC().Add(-2*time.Hour), 100)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}

	got, _ := payments.FindByID(context.Background(), repository.NoTX, "stale-1")
	if got.Status != model.PaymentStatusFailed {
		t.Fatalf("stale status = %s, want FAILED", got.Status)
	}
	got, _ = payments.FindByID(context.Background(), repository.NoTX, "fresh-1")
	if got.Status != model.PaymentStatusPending {
		t.Fatalf("fresh status = %s, want PENDING", got.Status)
	}
}
