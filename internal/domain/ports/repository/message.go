package repository

import (
	"context"

	"skillbridge-billing/internal/domain/model"
)

// MessageRepository is the notification sink: the billing core only ever
// inserts admin messages addressed to a user.
type MessageRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Message) error
}
