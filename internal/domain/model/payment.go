package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING" // STK push sent; awaiting callback
	PaymentStatusSuccess PaymentStatus = "SUCCESS" // callback reported ResultCode 0
	PaymentStatusFailed  PaymentStatus = "FAILED"  // callback reported failure, or initiation failed
)

// Payment records one attempted M-Pesa charge. A row is created PENDING when
// the user submits a billing request and is mutated at most once by the
// callback reconciler; it is never deleted.
type Payment struct {
	ID        string // UUID
	UserID    int64
	ProfileID int64
	PlanID    int64
	Phone     string          // pre-validated digit string; normalized to 254... at the gateway
	AmountKES decimal.Decimal // NUMERIC(10,2), Kenyan Shillings
	Status    PaymentStatus

	// CheckoutRequestID is the provider correlation token returned by the STK
	// push; ReceiptNumber is the final M-Pesa receipt set on success. The two
	// are kept separate so their meaning never depends on Status.
	CheckoutRequestID *string
	ReceiptNumber     *string

	// AccountReference is immutable, globally unique and encodes user,
	// profile, plan and a time-ordered ULID.
	AccountReference string

	// RawCallback holds the webhook body verbatim as an audit trail,
	// regardless of outcome.
	RawCallback []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderRef is what the status endpoint exposes: the receipt number once
// the payment succeeded, otherwise the checkout request id (if any).
func (p *Payment) ProviderRef() string {
	if p.ReceiptNumber != nil {
		return *p.ReceiptNumber
	}
	if p.CheckoutRequestID != nil {
		return *p.CheckoutRequestID
	}
	return ""
}
