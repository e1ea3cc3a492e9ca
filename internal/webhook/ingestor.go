// Package webhook ingests identity-provider callbacks. Verification runs
// over the exact bytes the sender transmitted, before any parsing, and each
// delivery id is applied at most once no matter how often it is redelivered.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cosmoblog/cosmoblog/internal/apperr"
	"github.com/cosmoblog/cosmoblog/internal/model"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	DeliveryHeader  = "X-Webhook-Delivery"
)

// Event is a parsed delivery. Data stays opaque until the type is known.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type userData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	ImageURL string `json:"image_url"`
}

// Store applies an event's effect and records its delivery id in one atomic
// step. Implementations return applied=false, without reapplying, when the
// delivery id has already been recorded.
type Store interface {
	ApplyUserUpsert(ctx context.Context, deliveryID string, user model.User) (applied bool, err error)
	ApplyUserDelete(ctx context.Context, deliveryID string, externalID string) (applied bool, err error)
}

// Ingestor verifies and applies webhook deliveries.
type Ingestor struct {
	secret []byte
	store  Store
	log    zerolog.Logger
}

func NewIngestor(secret string, store Store, log zerolog.Logger) *Ingestor {
	return &Ingestor{secret: []byte(secret), store: store, log: log}
}

// Handle processes POST /webhooks. Order matters: signature over raw bytes
// first, then parse, then the dedup-guarded effect.
func (i *Ingestor) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.BadRequest("unreadable body").WithCause(err)
	}

	if !Verify(i.secret, body, c.Request().Header.Get(SignatureHeader)) {
		return apperr.Unauthorized("invalid webhook signature")
	}

	deliveryID := strings.TrimSpace(c.Request().Header.Get(DeliveryHeader))
	if deliveryID == "" {
		return apperr.BadRequest("missing delivery id")
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return apperr.BadRequest("malformed event payload").WithCause(err)
	}

	applied, err := i.apply(c.Request().Context(), deliveryID, ev)
	if err != nil {
		return err
	}
	if !applied {
		i.log.Info().Str("delivery_id", deliveryID).Str("type", ev.Type).
			Msg("duplicate webhook delivery acknowledged")
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (i *Ingestor) apply(ctx context.Context, deliveryID string, ev Event) (bool, error) {
	switch ev.Type {
	case "user.created", "user.updated":
		var data userData
		if err := json.Unmarshal(ev.Data, &data); err != nil || data.ID == "" {
			return false, apperr.BadRequest("malformed user data").WithCause(err)
		}
		user := model.User{
			ExternalID: data.ID,
			Username:   data.Username,
			Email:      data.Email,
			ImageURL:   data.ImageURL,
		}
		applied, err := i.store.ApplyUserUpsert(ctx, deliveryID, user)
		if err != nil {
			return false, apperr.Internal(err)
		}
		return applied, nil

	case "user.deleted":
		var data userData
		if err := json.Unmarshal(ev.Data, &data); err != nil || data.ID == "" {
			return false, apperr.BadRequest("malformed user data").WithCause(err)
		}
		applied, err := i.store.ApplyUserDelete(ctx, deliveryID, data.ID)
		if err != nil {
			return false, apperr.Internal(err)
		}
		return applied, nil

	default:
		// Unrecognized types are acknowledged so the sender stops retrying.
		i.log.Info().Str("delivery_id", deliveryID).Str("type", ev.Type).
			Msg("ignoring unknown webhook event type")
		return true, nil
	}
}

// Sign computes the hex HMAC-SHA256 signature senders put in the header.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature over body and compares in constant time.
func Verify(secret, body []byte, header string) bool {
	header = strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	given, err := hex.DecodeString(header)
	if err != nil || len(given) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(given, mac.Sum(nil))
}
