package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosmoblog/cosmoblog/internal/model"
)

// ErrDuplicateSlug reports a slug collision on insert; callers retry with a
// new suffix.
var ErrDuplicateSlug = errors.New("duplicate slug")

const postColumns = `id, user_id, slug, title, description, category, content, image_url, is_featured, visit, created_at, updated_at`

// PostRepository persists and reads posts.
type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

// Create inserts a new post and fills in ID and timestamps.
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO posts (id, user_id, slug, title, description, category, content, image_url, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		post.ID, post.UserID, post.Slug, post.Title, post.Desc, post.Category,
		post.Content, post.ImageURL, post.IsFeatured,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateSlug
	}
	return err
}

// GetBySlug returns one post, or nil if absent.
func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	return scanPost(row)
}

// GetByID returns one post, or nil if absent.
func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

// ListOptions narrows and pages List results.
type ListOptions struct {
	Limit    int
	Offset   int
	Category string
	Featured bool
}

// List returns posts newest first.
func (r *PostRepository) List(ctx context.Context, opts ListOptions) ([]model.Post, error) {
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	query := `SELECT ` + postColumns + ` FROM posts WHERE ($1 = '' OR category = $1) AND (NOT $2 OR is_featured)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, opts.Category, opts.Featured, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPostRow(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// Update rewrites the mutable fields of a post. Returns false if the post
// is gone.
func (r *PostRepository) Update(ctx context.Context, post *model.Post) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts
		SET title = $2, description = $3, category = $4, content = $5, image_url = $6, is_featured = $7, updated_at = now()
		WHERE id = $1`,
		post.ID, post.Title, post.Desc, post.Category, post.Content, post.ImageURL, post.IsFeatured)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes a post. Returns false if nothing matched.
func (r *PostRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IncrementVisit bumps the visit counter in a single atomic statement.
// Splitting this into a read and a write would drop concurrent increments.
// Returns false when no post has the slug.
func (r *PostRepository) IncrementVisit(ctx context.Context, slug string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE posts SET visit = visit + 1 WHERE slug = $1`, slug)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row pgx.Row) (*model.Post, error) {
	p, err := scanPostRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanPostRow(row rowScanner) (*model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID, &p.UserID, &p.Slug, &p.Title, &p.Desc, &p.Category,
		&p.Content, &p.ImageURL, &p.IsFeatured, &p.Visit, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
