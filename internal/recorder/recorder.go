// Package recorder defines the injected recorder-control surface. The engine
// never spawns or discovers a recorder itself; the embedding application
// provides a Controller, or Unavailable when there is none.
package recorder

import (
	"context"
	"errors"
)

// ErrUnavailable reports that no recorder is wired into this process.
var ErrUnavailable = errors.New("recorder unavailable")

// Status describes the recorder's current activity.
type Status struct {
	Recording bool
	SessionID string
}

// Controller starts and stops recording for a session.
type Controller interface {
	Start(ctx context.Context, sessionID string) error
	Stop(ctx context.Context, sessionID string) error
	Status(ctx context.Context) (Status, error)
}

// Unavailable is the no-op Controller used when the host application wires
// no recorder. Every call reports ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Start(ctx context.Context, sessionID string) error {
	return ErrUnavailable
}

func (Unavailable) Stop(ctx context.Context, sessionID string) error {
	return ErrUnavailable
}

func (Unavailable) Status(ctx context.Context) (Status, error) {
	return Status{}, ErrUnavailable
}
