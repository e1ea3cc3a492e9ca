package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
	"github.com/cosmoblog/cosmoblog/internal/auth"
	"github.com/cosmoblog/cosmoblog/internal/model"
	"github.com/cosmoblog/cosmoblog/internal/response"
)

// UserStore resolves verified subjects to local user records.
type UserStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

// UserHandler serves /users.
type UserHandler struct {
	Users UserStore
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c echo.Context) error {
	user, err := requestUser(c, h.Users)
	if err != nil {
		return err
	}
	return response.OK(c, user)
}

// requestUser maps the verified subject to its local user record. A subject
// without a record has not been provisioned by the identity webhook yet.
func requestUser(c echo.Context, users UserStore) (*model.User, error) {
	ac, ok := auth.FromEcho(c)
	if !ok {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	user, err := users.GetByExternalID(c.Request().Context(), ac.Subject)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if user == nil {
		return nil, apperr.Unauthorized("Unauthorized")
	}
	return user, nil
}

// bind decodes and validates a JSON body, reporting malformed input as a
// validation error rather than a server fault.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.BadRequest("malformed request body").WithCause(err)
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}
