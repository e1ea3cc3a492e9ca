package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosmoblog/cosmoblog/internal/model"
)

// WebhookRepository applies webhook effects atomically with delivery-id
// dedup. The delivery id is claimed with an insert that does nothing on
// conflict; effect and claim commit together, so concurrent duplicate
// deliveries apply exactly once even across multiple processes.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

// ApplyUserUpsert creates or refreshes a user record for a delivery.
func (r *WebhookRepository) ApplyUserUpsert(ctx context.Context, deliveryID string, user model.User) (bool, error) {
	return r.applyOnce(ctx, deliveryID, "user.upsert", func(tx pgx.Tx) error {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, external_id, username, email, image_url)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (external_id) DO UPDATE
			SET username = excluded.username, email = excluded.email, image_url = excluded.image_url`,
			user.ID, user.ExternalID, user.Username, user.Email, user.ImageURL)
		return err
	})
}

// ApplyUserDelete removes the user record for a delivery.
func (r *WebhookRepository) ApplyUserDelete(ctx context.Context, deliveryID string, externalID string) (bool, error) {
	return r.applyOnce(ctx, deliveryID, "user.delete", func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
		return err
	})
}

func (r *WebhookRepository) applyOnce(ctx context.Context, deliveryID, eventType string, effect func(pgx.Tx) error) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO webhook_deliveries (delivery_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (delivery_id) DO NOTHING`, deliveryID, eventType)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		// Already applied by an earlier (possibly concurrent) delivery.
		return false, nil
	}
	if err := effect(tx); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
