package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"skillbridge-billing/internal/domain"
	"skillbridge-billing/internal/domain/model"
	"skillbridge-billing/internal/domain/ports/repository"
)

var _ repository.MessageRepository = (*messageRepo)(nil)

type messageRepo struct{ pool *pgxpool.Pool }

func NewMessageRepo(pool *pgxpool.Pool) *messageRepo {
	return &messageRepo{pool: pool}
}

func (r *messageRepo) Save(ctx context.Context, tx repository.Tx, m *model.Message) error {
	const q = `
INSERT INTO messages (sender_user_id, recipient_user_id, content, is_read, is_admin_message, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())
RETURNING id, created_at;`

	row, err := pickRow(ctx, r.pool, tx, q, m.SenderUserID, m.RecipientUserID, m.Content, m.IsRead, m.IsAdminMessage)
	if err != nil {
		return err
	}
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
