// Package server composes the ingress pipeline: recovery, request logging,
// CORS allow-list, body limit and the readiness gate run in that order
// before dispatch. Webhook routes receive the raw body untouched; every
// other route binds JSON through the validator. All failures funnel into a
// single error handler.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	nrecho "github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/cosmoblog/cosmoblog/internal/auth"
	"github.com/cosmoblog/cosmoblog/internal/config"
	"github.com/cosmoblog/cosmoblog/internal/database"
	"github.com/cosmoblog/cosmoblog/internal/handler"
	"github.com/cosmoblog/cosmoblog/internal/repository"
	"github.com/cosmoblog/cosmoblog/internal/webhook"
)

const maxBodySize = "1M"

// StateReporter exposes the database connection state to the readiness
// gate and the health endpoint.
type StateReporter interface {
	State() database.State
}

// Stores bundles every store the handlers depend on.
type Stores struct {
	Posts    handler.PostStore
	Users    handler.UserStore
	Comments handler.CommentStore
	Webhooks webhook.Store
}

// NewStores builds the pgx-backed stores from the shared pool.
func NewStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Posts:    repository.NewPostRepository(pool),
		Users:    repository.NewUserRepository(pool),
		Comments: repository.NewCommentRepository(pool),
		Webhooks: repository.NewWebhookRepository(pool),
	}
}

// Deps carries everything New needs besides configuration.
type Deps struct {
	DB       StateReporter
	Stores   Stores
	Verifier auth.Verifier

	// App enables New Relic transaction middleware when non-nil.
	App *newrelic.Application
}

// Server holds the Echo app and its configuration.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
}

// New builds the Echo server and registers all routes.
func New(cfg *config.Config, deps Deps, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &echoValidator{validate: validator.New()}
	e.HTTPErrorHandler = errorSink(cfg.IsProduction(), log)

	if deps.App != nil {
		e.Use(nrecho.Middleware(deps.App))
	}
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		requestLogger(log),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.Origins(),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
		}),
		middleware.BodyLimit(maxBodySize),
		readinessGate(deps.DB),
	)

	requireAuth := auth.Required(deps.Verifier)

	posts := &handler.PostHandler{Posts: deps.Stores.Posts, Users: deps.Stores.Users, Log: log}
	comments := &handler.CommentHandler{Comments: deps.Stores.Comments, Posts: deps.Stores.Posts, Users: deps.Stores.Users}
	users := &handler.UserHandler{Users: deps.Stores.Users}
	ingestor := webhook.NewIngestor(cfg.Webhook.Secret, deps.Stores.Webhooks, log)

	// The webhook route reads the raw body itself; registering it outside
	// the JSON-binding groups keeps signature input byte-exact.
	e.POST("/webhooks", ingestor.Handle)

	pg := e.Group("/posts")
	pg.GET("", posts.List)
	pg.GET("/:slug", posts.Get, posts.CountVisit)
	pg.POST("", posts.Create, requireAuth)
	pg.PUT("/:id", posts.Update, requireAuth)
	pg.PATCH("/:id", posts.Update, requireAuth)
	pg.DELETE("/:id", posts.Delete, requireAuth)

	cg := e.Group("/comments")
	cg.GET("/:postId", comments.List)
	cg.POST("/:postId", comments.Create, requireAuth)
	cg.DELETE("/:id", comments.Delete, requireAuth)

	e.GET("/users/me", users.Me, requireAuth)

	e.GET("/healthz", func(c echo.Context) error {
		state := deps.DB.State()
		status := http.StatusOK
		if state != database.StateReady {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, echo.Map{"database": state.String()})
	})

	return &Server{Echo: e, Config: cfg}
}

// Start runs the listener until the context is cancelled or the server
// fails. On cancel it shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.Echo.Server.ReadTimeout = time.Duration(s.Config.Server.ReadTimeout) * time.Second
	s.Echo.Server.WriteTimeout = time.Duration(s.Config.Server.WriteTimeout) * time.Second
	s.Echo.Server.IdleTimeout = time.Duration(s.Config.Server.IdleTimeout) * time.Second

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Echo.Shutdown(shutdownCtx)
	}()

	err := s.Echo.Start(":" + s.Config.Server.Port)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
