package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/adapter"
	"skillbridge-billing/internal/domain/ports/repository"
	"skillbridge-billing/internal/infra/metrics"
)

var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase applies the asynchronous STK callback to the matching
// payment exactly once and triggers the downstream effects.
type ReconcileUseCase interface {
	// ProcessCallback returns nil when the callback was applied,
	// domain.ErrAlreadyReconciled when it was a duplicate (safe no-op),
	// domain.ErrInvalidArgument for a malformed payload and
	// domain.ErrNotFound when no payment matches the checkout request id.
	ProcessCallback(ctx context.Context, raw []byte) error
}

type reconcileUC struct {
	payments repository.PaymentRepository
	subs     SubscriptionUseCase
	plans    repository.PlanRepository
	messages repository.MessageRepository
	tm       repository.TransactionManager
	locker   adapter.Locker
	log      *zerolog.Logger
}

func NewReconcileUseCase(
	payments repository.PaymentRepository,
	subs SubscriptionUseCase,
	plans repository.PlanRepository,
	messages repository.MessageRepository,
	tm repository.TransactionManager,
	locker adapter.Locker,
	logger *zerolog.Logger,
) *reconcileUC {
	l := logger.With().Str("component", "ReconcileUC").Logger()
	return &reconcileUC{
		payments: payments,
		subs:     subs,
		plans:    plans,
		messages: messages,
		tm:       tm,
		locker:   locker,
		log:      &l,
	}
}

// Wire shapes of the Daraja callback. The metadata Item values are mixed
// (strings and numbers), so they stay raw until extracted by name.
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback *stkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type stkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []stkCallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type stkCallbackItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// receiptNumber pulls MpesaReceiptNumber out of the success metadata.
func (c *stkCallback) receiptNumber() string {
	for _, item := range c.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			var v string
			if json.Unmarshal(item.Value, &v) == nil {
				return v
			}
		}
	}
	return ""
}

func (u *reconcileUC) ProcessCallback(ctx context.Context, raw []byte) error {
	var env stkCallbackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.IncCallback("malformed")
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	cb := env.Body.StkCallback
	if cb == nil || cb.CheckoutRequestID == "" {
		metrics.IncCallback("malformed")
		return fmt.Errorf("%w: missing stkCallback or checkout request id", domain.ErrInvalidArgument)
	}

	// Serialize racing duplicate deliveries; the conditional update below is
	// the durable guard, the lock just avoids doing the work twice.
	lockKey := "reconcile:" + cb.CheckoutRequestID
	token, err := u.locker.TryLock(ctx, lockKey, 30*time.Second)
	if err != nil {
		metrics.IncCallback("duplicate")
		return domain.ErrAlreadyReconciled
	}
	defer func() { _ = u.locker.Unlock(ctx, lockKey, token) }()

	var (
		payment    *model.Payment
		plan       *model.Plan
		duplicate  bool
		receipt    = cb.receiptNumber()
		successful = cb.ResultCode == 0
	)

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.FindByCheckoutRequestID(ctx, tx, cb.CheckoutRequestID)
		if err != nil {
			return err
		}
		payment = p

		// Audit trail first: the raw body is kept verbatim on the payment
		// whatever the outcome.
		if err := u.payments.AttachCallback(ctx, tx, p.ID, raw); err != nil {
			return err
		}

		status := model.PaymentStatusFailed
		var receiptPtr *string
		if successful {
			status = model.PaymentStatusSuccess
			if receipt != "" {
				receiptPtr = &receipt
			}
		}

		transitioned, err := u.payments.MarkResult(ctx, tx, p.ID, status, receiptPtr)
		if err != nil {
			return err
		}
		if !transitioned {
			duplicate = true
			return domain.ErrAlreadyReconciled
		}

		if !successful {
			return nil
		}

		pl, err := u.plans.FindByID(ctx, tx, p.PlanID)
		if err != nil {
			return err
		}
		plan = pl

		_, created, err := u.subs.ActivateOrExtend(ctx, tx, p.UserID, p.ProfileID, pl)
		if err != nil {
			return err
		}
		if created {
			metrics.IncSubscriptionGranted("created")
		} else {
			metrics.IncSubscriptionGranted("extended")
		}
		return nil
	})
	if err != nil {
		if duplicate {
			metrics.IncCallback("duplicate")
			u.log.Info().Str("checkout_request_id", cb.CheckoutRequestID).Msg("duplicate callback ignored")
			return domain.ErrAlreadyReconciled
		}
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncCallback("unmatched")
			u.log.Error().Str("checkout_request_id", cb.CheckoutRequestID).Msg("no payment matches callback")
			return err
		}
		metrics.IncCallback("failed")
		return err
	}

	// Post-commit side effects. Notification failure never fails the flow.
	if successful {
		metrics.IncCallback("success")
		metrics.IncPayment(string(model.PaymentStatusSuccess))
		metrics.AddPaymentRevenue("kes", payment.AmountKES.IntPart())
		u.notify(ctx, payment.UserID, fmt.Sprintf(
			"Payment successful! Your %s subscription is now active. Transaction ID: %s",
			plan.Name, receipt,
		))
	} else {
		metrics.IncCallback("failed_result")
		metrics.IncPayment(string(model.PaymentStatusFailed))
		u.notify(ctx, payment.UserID, fmt.Sprintf(
			"Payment failed: %s. Please try again or contact support.",
			cb.ResultDesc,
		))
	}

	u.log.Info().
		Str("payment_id", payment.ID).
		Str("checkout_request_id", cb.CheckoutRequestID).
		Bool("success", successful).
		Msg("callback reconciled")
	return nil
}

func (u *reconcileUC) notify(ctx context.Context, userID int64, content string) {
	m := &model.Message{
		SenderUserID:    model.SystemSenderID,
		RecipientUserID: userID,
		Content:         content,
		IsAdminMessage:  true,
	}
	if err := u.messages.Save(ctx, repository.NoTX, m); err != nil {
		u.log.Error().Err(err).Int64("user_id", userID).Msg("payment notification not delivered")
	}
}
