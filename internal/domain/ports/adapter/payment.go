package adapter

import (
	"context"
	"time"

	"skillbridge-billing/internal/domain/model"
)

// StkPushResult carries the correlation tokens returned when a push is
// accepted by the provider. CheckoutRequestID is what the asynchronous
// callback is later matched against.
type StkPushResult struct {
	CheckoutRequestID   string
	MerchantRequestID   string
	ResponseCode        string
	ResponseDescription string
}

// PaymentGateway is the hex port for the mobile-money provider.
type PaymentGateway interface {
	Name() string

	// AccessToken obtains a bearer token from the provider's OAuth endpoint.
	// Absence of a token is a hard stop for any charge attempt.
	AccessToken(ctx context.Context) (string, error)

	// StkPush prompts the payer's phone with a PIN entry request. amountKES
	// is whole shillings (the provider takes an integer). All failure modes
	// (missing config, network, non-2xx) come back as error returns; nothing
	// propagates past this boundary.
	StkPush(ctx context.Context, phone string, amountKES int64, accountReference, description string) (StkPushResult, error)
}

// SettingsSource hands the gateway an always-current snapshot of the
// merchant settings. Implemented by the settings use case; refreshed by an
// explicit Reload, not by re-querying storage on every call.
type SettingsSource interface {
	Current() (*model.MerchantSettings, error)
}

// Locker serializes racing duplicate webhook deliveries ahead of the
// conditional status update.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
