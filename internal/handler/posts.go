package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
	"github.com/cosmoblog/cosmoblog/internal/model"
	"github.com/cosmoblog/cosmoblog/internal/repository"
	"github.com/cosmoblog/cosmoblog/internal/response"
)

// PostStore is what the post handlers need from the content store.
type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	List(ctx context.Context, opts repository.ListOptions) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// IncrementVisit must be a single atomic store operation; it returns
	// false when no post has the slug.
	IncrementVisit(ctx context.Context, slug string) (bool, error)
}

// PostHandler serves /posts.
type PostHandler struct {
	Posts PostStore
	Users UserStore
	Log   zerolog.Logger
}

type postRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Desc       string `json:"desc" validate:"max=500"`
	Category   string `json:"category" validate:"max=50"`
	Content    string `json:"content" validate:"required"`
	ImageURL   string `json:"img"`
	IsFeatured bool   `json:"is_featured"`
}

// List handles GET /posts.
func (h *PostHandler) List(c echo.Context) error {
	opts := repository.ListOptions{
		Category: c.QueryParam("category"),
		Featured: c.QueryParam("featured") == "true",
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 && limit <= 100 {
		opts.Limit = limit
	}
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil && page > 1 {
		if opts.Limit == 0 {
			opts.Limit = 20
		}
		opts.Offset = (page - 1) * opts.Limit
	}
	posts, err := h.Posts.List(c.Request().Context(), opts)
	if err != nil {
		return apperr.Internal(err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return response.OK(c, posts)
}

// Get handles GET /posts/:slug. CountVisit has already confirmed existence
// on this route, but the post may vanish in between.
func (h *PostHandler) Get(c echo.Context) error {
	post, err := h.Posts.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return apperr.Internal(err)
	}
	if post == nil {
		return apperr.NotFound("Post not found")
	}
	return response.OK(c, post)
}

// CountVisit is the middleware on GET /posts/:slug. A missing post is 404;
// a failed increment is logged and the request continues, because the
// counter is best-effort analytics while serving the post is not.
func (h *PostHandler) CountVisit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("slug")
		found, err := h.Posts.IncrementVisit(c.Request().Context(), slug)
		if err != nil {
			h.Log.Warn().Err(err).Str("slug", slug).Msg("visit increment failed")
			return next(c)
		}
		if !found {
			return apperr.NotFound("Post not found")
		}
		return next(c)
	}
}

// Create handles POST /posts.
func (h *PostHandler) Create(c echo.Context) error {
	user, err := requestUser(c, h.Users)
	if err != nil {
		return err
	}
	var req postRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post := &model.Post{
		UserID:     user.ID,
		Title:      req.Title,
		Desc:       req.Desc,
		Category:   req.Category,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		IsFeatured: req.IsFeatured,
	}
	if err := h.createWithUniqueSlug(c.Request().Context(), post); err != nil {
		return apperr.Internal(err)
	}
	return response.Created(c, post)
}

// Update handles PUT/PATCH /posts/:id, for the author only.
func (h *PostHandler) Update(c echo.Context) error {
	user, err := requestUser(c, h.Users)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.BadRequest("invalid post id")
	}
	post, err := h.Posts.GetByID(c.Request().Context(), id)
	if err != nil {
		return apperr.Internal(err)
	}
	if post == nil {
		return apperr.NotFound("Post not found")
	}
	if post.UserID != user.ID {
		return apperr.Forbidden("You can only edit your own posts")
	}

	var req postRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	post.Title = req.Title
	post.Desc = req.Desc
	post.Category = req.Category
	post.Content = req.Content
	post.ImageURL = req.ImageURL
	post.IsFeatured = req.IsFeatured

	found, err := h.Posts.Update(c.Request().Context(), post)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("Post not found")
	}
	return response.OK(c, post)
}

// Delete handles DELETE /posts/:id, for the author only.
func (h *PostHandler) Delete(c echo.Context) error {
	user, err := requestUser(c, h.Users)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.BadRequest("invalid post id")
	}
	post, err := h.Posts.GetByID(c.Request().Context(), id)
	if err != nil {
		return apperr.Internal(err)
	}
	if post == nil {
		return apperr.NotFound("Post not found")
	}
	if post.UserID != user.ID {
		return apperr.Forbidden("You can only delete your own posts")
	}
	if _, err := h.Posts.Delete(c.Request().Context(), id); err != nil {
		return apperr.Internal(err)
	}
	return response.OK(c, echo.Map{"message": "Post deleted"})
}

// createWithUniqueSlug retries slug collisions with a numeric suffix, then
// falls back to a random one.
func (h *PostHandler) createWithUniqueSlug(ctx context.Context, post *model.Post) error {
	base := slugify(post.Title)
	post.Slug = base
	var err error
	for i := 2; i <= 10; i++ {
		err = h.Posts.Create(ctx, post)
		if err != repository.ErrDuplicateSlug {
			return err
		}
		post.Slug = base + "-" + strconv.Itoa(i)
	}
	post.Slug = base + "-" + uuid.NewString()[:8]
	return h.Posts.Create(ctx, post)
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "post"
	}
	return slug
}
