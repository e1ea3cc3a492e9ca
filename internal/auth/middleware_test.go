package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
)

func callRequired(t *testing.T, v Verifier, decorate func(*http.Request)) (error, Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	decorate(req)
	c := e.NewContext(req, httptest.NewRecorder())

	var got Context
	handler := Required(v)(func(c echo.Context) error {
		got, _ = FromEcho(c)
		return nil
	})
	return handler(c), got
}

func TestRequired_BearerToken(t *testing.T) {
	v := NewTokenVerifier("secret")
	token := v.Issue("user_1", time.Hour)

	err, ac := callRequired(t, v, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if !ac.Verified || ac.Subject != "user_1" {
		t.Errorf("auth context = %+v", ac)
	}
}

func TestRequired_SessionCookie(t *testing.T) {
	v := NewTokenVerifier("secret")
	token := v.Issue("user_1", time.Hour)

	err, ac := callRequired(t, v, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	})
	if err != nil {
		t.Fatalf("handler err: %v", err)
	}
	if ac.Subject != "user_1" {
		t.Errorf("subject = %q", ac.Subject)
	}
}

func TestRequired_MissingCredential(t *testing.T) {
	err, _ := callRequired(t, NewTokenVerifier("secret"), func(*http.Request) {})

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 apperr", err)
	}
	if ae.Message != "Unauthorized" {
		t.Errorf("message = %q", ae.Message)
	}
}

func TestRequired_InvalidToken(t *testing.T) {
	err, _ := callRequired(t, NewTokenVerifier("secret"), func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	})

	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 apperr", err)
	}
}
