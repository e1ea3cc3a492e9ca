// Package database owns the single shared Postgres pool. Connection state
// is an explicit, inspectable value: the pool is handed out only after a
// successful ping, and the server's readiness gate consults State before
// letting store-dependent traffic through.
package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"

	"github.com/cosmoblog/cosmoblog/internal/config"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Database wraps the shared pgx pool together with its connection state.
type Database struct {
	pool  *pgxpool.Pool
	state atomic.Int32
	log   zerolog.Logger
}

func (d *Database) setState(s State) { d.state.Store(int32(s)) }

// State reports the current connection state.
func (d *Database) State() State { return State(d.state.Load()) }

// Ready reports whether the pool may be used.
func (d *Database) Ready() bool { return d.State() == StateReady }

// Pool returns the shared pool. Valid only after Connect succeeded.
func (d *Database) Pool() *pgxpool.Pool { return d.pool }

// Close releases the pool and returns the state to disconnected.
func (d *Database) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
	d.setState(StateDisconnected)
}

// Connect establishes the shared pool within the configured timeout and
// attempt budget. It pings before reporting ready; on an exhausted budget
// the state is failed and the returned Database must not serve traffic.
// Query tracing goes to zerolog, and to the New Relic agent as well when
// tracers carries one (see nrpgx5).
func Connect(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger, tracers ...pgx.QueryTracer) (*Database, error) {
	d := &Database{log: log}
	d.setState(StateConnecting)

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		d.setState(StateFailed)
		return d, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.ConnConfig.Tracer = newQueryTracer(log, tracers...)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeout)*time.Second)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				d.pool = pool
				d.setState(StateReady)
				log.Info().Int("attempt", attempt).Msg("database connected")
				return d, nil
			}
			pool.Close()
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Msg("database connection attempt failed")

		if attempt == cfg.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			d.setState(StateFailed)
			return d, fmt.Errorf("database connect timed out: %w", lastErr)
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	d.setState(StateFailed)
	return d, fmt.Errorf("database connect failed after %d attempts: %w", cfg.ConnectAttempts, lastErr)
}

// NewRelicTracer returns the pgx tracer that reports queries to the agent.
func NewRelicTracer() pgx.QueryTracer { return nrpgx5.NewTracer() }

// newQueryTracer composes the zerolog tracelog tracer with any extras.
func newQueryTracer(log zerolog.Logger, extra ...pgx.QueryTracer) pgx.QueryTracer {
	base := &tracelog.TraceLog{
		Logger:   zerologadapter.NewLogger(log),
		LogLevel: tracelog.LogLevelWarn,
	}
	if len(extra) == 0 {
		return base
	}
	return multiQueryTracer(append([]pgx.QueryTracer{base}, extra...))
}

type multiQueryTracer []pgx.QueryTracer

func (m multiQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range m {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (m multiQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range m {
		t.TraceQueryEnd(ctx, conn, data)
	}
}
