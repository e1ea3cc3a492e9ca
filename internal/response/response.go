package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIError is the uniform error envelope. Nothing beyond message and status
// ever reaches a client.
type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Error sends the error envelope with the given status.
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, APIError{Message: message, Status: status})
}

// OK sends a 200 response with data.
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// Created sends a 201 response with data.
func Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}

// NoContent sends 204.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}
