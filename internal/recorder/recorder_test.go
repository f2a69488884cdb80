package recorder

import (
	"context"
	"errors"
	"testing"
)

func TestUnavailableReportsTypedError(t *testing.T) {
	var c Controller = Unavailable{}
	ctx := context.Background()

	if err := c.Start(ctx, "s1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Start: expected ErrUnavailable, got %v", err)
	}
	if err := c.Stop(ctx, "s1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Stop: expected ErrUnavailable, got %v", err)
	}
	if _, err := c.Status(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Status: expected ErrUnavailable, got %v", err)
	}
}
