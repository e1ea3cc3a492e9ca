package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
	"github.com/cosmoblog/cosmoblog/internal/model"
	"github.com/cosmoblog/cosmoblog/internal/response"
)

// CommentStore is what the comment handlers need from the store.
type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postID uuid.UUID) ([]model.Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// PostGetter confirms a post exists before comments are read or written.
type PostGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
}

// CommentHandler serves /comments.
type CommentHandler struct {
	Comments CommentStore
	Posts    PostGetter
	Users    UserStore
}

type commentRequest struct {
	Desc string `json:"desc" validate:"required,max=2000"`
}

// List handles GET /comments/:postId.
func (h *CommentHandler) List(c echo.Context) error {
	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		return apperr.BadRequest("invalid post id")
	}
	post, err := h.Posts.GetByID(c.Request().Context(), postID)
	if err != nil {
		return apperr.Internal(err)
	}
	if post == nil {
		return apperr.NotFound("Post not found")
	}
	comments, err := h.Comments.ListByPost(c.Request().Context(), postID)
	if err != nil {
		return apperr.Internal(err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return response.OK(c, comments)
}

// Create handles POST /comments/:postId.
func (h *CommentHandler) Create(c echo.Context) error {
	user, err := requestUser(c, h.Users)
	if err != nil {
		return err
	}
	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		return apperr.BadRequest("invalid post id")
	}
	var req commentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	post, err := h.Posts.GetByID(c.Request().Context(), postID)
	if err != nil {
		return apperr.Internal(err)
	}
	if post == nil {
		return apperr.NotFound("Post not found")
	}

	comment := &model.Comment{
		UserID: user.ID,
		PostID: postID,
		Desc:   req.Desc,
		Author: user.Username,
	}
	if err := h.Comments.Create(c.Request().Context(), comment); err != nil {
		return apperr.Internal(err)
	}
	return response.Created(c, comment)
}

// Delete handles DELETE /comments/:id, for the comment's author only.
func (h *CommentHandler) Delete(c echo.Context) error {
	user, err := requestUser(c, h.Users)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.BadRequest("invalid comment id")
	}
	comment, err := h.Comments.GetByID(c.Request().Context(), id)
	if err != nil {
		return apperr.Internal(err)
	}
	if comment == nil {
		return apperr.NotFound("Comment not found")
	}
	if comment.UserID != user.ID {
		return apperr.Forbidden("You can only delete your own comments")
	}
	if _, err := h.Comments.Delete(c.Request().Context(), id); err != nil {
		return apperr.Internal(err)
	}
	return response.OK(c, echo.Map{"message": "Comment deleted"})
}
