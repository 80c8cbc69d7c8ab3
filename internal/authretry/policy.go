// Package authretry implements the unauthorized-retry rule shared by reads
// and writes: on a 401, refresh the session once and replay the original
// operation exactly once.
package authretry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atinyakov/TrailKeeper/internal/metrics"
	"github.com/atinyakov/TrailKeeper/internal/remote"
	"go.uber.org/zap"
)

// ErrSessionEnded is returned when the refresh that should have healed a 401
// failed. The session has already been logged out by then.
var ErrSessionEnded = errors.New("session ended")

// ErrReplayUnauthorized wraps the 401 returned by the single replay.
var ErrReplayUnauthorized = errors.New("replay rejected as unauthorized")

// Kind names an operation that can be replayed.
type Kind string

// Operation describes a replayable call: what to do and with which
// arguments. It carries no closures, so it can be logged or serialized.
type Operation struct {
	Kind Kind `json:"kind"`
	// ID is the target identifier for update and delete operations, or the
	// primary key parameter of a read.
	ID string `json:"id,omitempty"`
	// ParentID is a secondary key parameter, e.g. the hike of a route read.
	ParentID string `json:"parentId,omitempty"`
	// Payload is the original request body, if any.
	Payload any `json:"payload,omitempty"`
}

// String renders the operation for logs.
func (op Operation) String() string {
	b, err := json.Marshal(op)
	if err != nil {
		return string(op.Kind)
	}
	return string(b)
}

// Refresher obtains a fresh token pair. It must end the session itself when
// the refresh fails.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Policy applies the retry rule. It holds no per-operation state.
type Policy struct {
	refresher Refresher
	log       *zap.Logger
	metrics   *metrics.Metrics
}

// New returns a Policy that heals 401s through r.
func New(r Refresher, log *zap.Logger, m *metrics.Metrics) *Policy {
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{refresher: r, log: log, metrics: m}
}

// Exec runs one attempt of op.
type Exec[T any] func(ctx context.Context, op Operation) (T, error)

// Do runs exec for op. A 401 triggers one refresh and, if that succeeds, one
// replay of the same op. Non-401 failures are returned unchanged.
func Do[T any](ctx context.Context, p *Policy, op Operation, exec Exec[T]) (T, error) {
	res, err := exec(ctx, op)
	if err == nil || !remote.IsUnauthorized(err) {
		return res, err
	}

	p.log.Info("unauthorized, refreshing session", zap.String("kind", string(op.Kind)), zap.String("op", op.String()))
	if rerr := p.refresher.Refresh(ctx); rerr != nil {
		p.metrics.ObserveReplay(string(op.Kind), "abandoned")
		p.log.Warn("refresh failed, replay abandoned", zap.String("kind", string(op.Kind)), zap.Error(rerr))
		var zero T
		if errors.Is(rerr, ErrSessionEnded) {
			return zero, rerr
		}
		return zero, fmt.Errorf("%w: %w", ErrSessionEnded, rerr)
	}

	res, err = exec(ctx, op)
	switch {
	case err == nil:
		p.metrics.ObserveReplay(string(op.Kind), "success")
	case remote.IsUnauthorized(err):
		p.metrics.ObserveReplay(string(op.Kind), "unauthorized")
		p.log.Warn("replay rejected as unauthorized", zap.String("kind", string(op.Kind)))
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrReplayUnauthorized, err)
	default:
		p.metrics.ObserveReplay(string(op.Kind), "error")
	}
	return res, err
}
