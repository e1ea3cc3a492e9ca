package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosmoblog/cosmoblog/internal/model"
)

// CommentRepository persists and reads comments.
type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

// Create inserts a comment and fills in ID and CreatedAt.
func (r *CommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO comments (id, user_id, post_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		comment.ID, comment.UserID, comment.PostID, comment.Desc,
	).Scan(&comment.CreatedAt)
}

// ListByPost returns a post's comments newest first, with author usernames
// joined in.
func (r *CommentRepository) ListByPost(ctx context.Context, postID uuid.UUID) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.user_id, c.post_id, c.description, c.created_at, u.username
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var cm model.Comment
		if err := rows.Scan(&cm.ID, &cm.UserID, &cm.PostID, &cm.Desc, &cm.CreatedAt, &cm.Author); err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}

// GetByID returns one comment, or nil if absent.
func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	var cm model.Comment
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, post_id, description, created_at FROM comments WHERE id = $1`, id,
	).Scan(&cm.ID, &cm.UserID, &cm.PostID, &cm.Desc, &cm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cm, nil
}

// Delete removes a comment. Returns false if nothing matched.
func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
