package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/adapter"
	"skillbridge-billing/internal/domain/ports/repository"
	"skillbridge-billing/internal/infra/metrics"
)

var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Initiate creates a PENDING payment and fires the STK push. The
	// returned payment carries the checkout request id on success, or ends
	// up FAILED when the push could not be sent.
	Initiate(ctx context.Context, userID, profileID, planID int64, phone string) (*model.Payment, error)
	// Status is scoped to the owning user and tolerates reading PENDING
	// indefinitely.
	Status(ctx context.Context, userID int64, paymentID string) (*model.Payment, error)
	History(ctx context.Context, userID int64, offset, limit int) ([]*model.Payment, error)
	// FailStalePending sweeps PENDING payments older than the cutoff to
	// FAILED and returns how many were swept.
	FailStalePending(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	plans    repository.PlanRepository
	gateway  adapter.PaymentGateway
	log      *zerolog.Logger
}

func NewPaymentUseCase(payments repository.PaymentRepository, plans repository.PlanRepository, gateway adapter.PaymentGateway, logger *zerolog.Logger) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{payments: payments, plans: plans, gateway: gateway, log: &l}
}

// newAccountReference encodes user, profile and plan plus a time-ordered
// ULID, so two initiations for the same triple within the same second still
// produce distinct references.
func newAccountReference(userID, profileID, planID int64) string {
	return fmt.Sprintf("u%d-p%d-pl%d-%s", userID, profileID, planID, ulid.Make().String())
}

func (u *paymentUC) Initiate(ctx context.Context, userID, profileID, planID int64, phone string) (*model.Payment, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if !plan.Active {
		return nil, domain.ErrPlanInactive
	}

	now := time.Now().UTC()
	p := &model.Payment{
		ID:               uuid.NewString(),
		UserID:           userID,
		ProfileID:        profileID,
		PlanID:           planID,
		Phone:            phone,
		AmountKES:        plan.PriceKES,
		Status:           model.PaymentStatusPending,
		AccountReference: newAccountReference(userID, profileID, planID),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("SkillBridge %s Plan", plan.Name)
	start := time.Now()
	res, pushErr := u.gateway.StkPush(ctx, phone, plan.PriceKES.IntPart(), p.AccountReference, desc)
	metrics.ObserveStkPushLatency(time.Since(start).Milliseconds())

	if pushErr != nil {
		// The PENDING row stays as the audit record of the attempt; flip it
		// to FAILED so the sweeper never touches it.
		if err := u.payments.MarkFailed(ctx, repository.NoTX, p.ID); err != nil {
			u.log.Error().Err(err).Str("payment_id", p.ID).Msg("mark failed after push error")
		}
		p.Status = model.PaymentStatusFailed
		metrics.IncPayment(string(model.PaymentStatusFailed))
		u.log.Warn().Err(pushErr).Str("payment_id", p.ID).Msg("stk push failed")
		return p, pushErr
	}

	if err := u.payments.SetCheckoutRequestID(ctx, repository.NoTX, p.ID, res.CheckoutRequestID); err != nil {
		return nil, err
	}
	p.CheckoutRequestID = &res.CheckoutRequestID
	metrics.IncPayment(string(model.PaymentStatusPending))
	u.log.Info().
		Str("payment_id", p.ID).
		Str("checkout_request_id", res.CheckoutRequestID).
		Str("account_reference", p.AccountReference).
		Msg("stk push accepted")
	return p, nil
}

func (u *paymentUC) Status(ctx context.Context, userID int64, paymentID string) (*model.Payment, error) {
	return u.payments.FindByIDForUser(ctx, repository.NoTX, paymentID, userID)
}

func (u *paymentUC) History(ctx context.Context, userID int64, offset, limit int) ([]*model.Payment, error) {
	return u.payments.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

func (u *paymentUC) FailStalePending(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	stale, err := u.payments.ListPendingOlderThan(ctx, repository.NoTX, olderThan, limit)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range stale {
		// Conditional transition: a callback racing the sweep wins.
		ok, err := u.payments.MarkResult(ctx, repository.NoTX, p.ID, model.PaymentStatusFailed, nil)
		if err != nil {
			u.log.Error().Err(err).Str("payment_id", p.ID).Msg("sweep stale pending")
			continue
		}
		if ok {
			n++
		}
	}
	return n, nil
}
