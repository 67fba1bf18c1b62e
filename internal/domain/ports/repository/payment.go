package repository

import (
	"context"
	"time"

	"skillbridge-billing/internal/domain/model"
)

// PaymentRepository is the port for payment persistence.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByIDForUser scopes the lookup to the owning user (status endpoint).
	FindByIDForUser(ctx context.Context, tx Tx, id string, userID int64) (*model.Payment, error)
	FindByCheckoutRequestID(ctx context.Context, tx Tx, checkoutRequestID string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID int64, offset, limit int) ([]*model.Payment, error)

	// SetCheckoutRequestID stores the provider correlation token after a
	// successful STK push.
	SetCheckoutRequestID(ctx context.Context, tx Tx, id, checkoutRequestID string) error

	// AttachCallback stores the raw webhook body verbatim (audit trail),
	// regardless of outcome.
	AttachCallback(ctx context.Context, tx Tx, id string, raw []byte) error

	// MarkResult transitions the payment to SUCCESS or FAILED only if it is
	// still PENDING, setting the receipt number when provided. Returns false
	// when the guard did not match, i.e. the payment was already reconciled.
	MarkResult(ctx context.Context, tx Tx, id string, status model.PaymentStatus, receiptNumber *string) (bool, error)

	// MarkFailed unconditionally fails a payment (initiation errors, before
	// any checkout request id exists).
	MarkFailed(ctx context.Context, tx Tx, id string) error

	// Sweep hook for the stale-payment sweeper.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)

	// Admin stats.
	SumSucceededByPeriod(ctx context.Context, tx Tx, period string) (int64, error)
	CountByStatus(ctx context.Context, tx Tx) (map[string]int, error)
}
