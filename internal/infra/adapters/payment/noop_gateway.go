package payment

import (
	"context"
	"fmt"
	"time"

	"skillbridge-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

// NoopGateway accepts every push without talking to Daraja. Dev mode only;
// reconciliation still needs a (hand-posted) callback.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway { return &NoopGateway{} }

func (n *NoopGateway) Name() string { return "noop" }

func (n *NoopGateway) AccessToken(ctx context.Context) (string, error) {
	return "noop-token", nil
}

func (n *NoopGateway) StkPush(ctx context.Context, phone string, amountKES int64, accountReference, description string) (adapter.StkPushResult, error) {
	return adapter.StkPushResult{
		CheckoutRequestID:   fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		MerchantRequestID:   "noop-merchant",
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
	}, nil
}
