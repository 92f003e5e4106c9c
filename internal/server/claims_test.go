package server

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

func newCoordinator(store Store) *ClaimCoordinator {
	return NewClaimCoordinator(store, NewBroadcaster(NewRegistry(), discardLogger()), discardLogger())
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr string
	}{
		{name: "valid", in: "ABC123", want: "ABC123"},
		{name: "lowercase normalized", in: "abc123", want: "ABC123"},
		{name: "whitespace trimmed", in: "  ABC123  ", want: "ABC123"},
		{name: "blank", in: "   ", wantErr: "Please provide a cache code."},
		{name: "symbols", in: "ABC-12", wantErr: "Invalid code format."},
		{name: "too short", in: "ABC12", wantErr: "Cache codes are 6 characters long."},
		{name: "too long", in: "ABC1234", wantErr: "Cache codes are 6 characters long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validateCode(tt.in)
			if tt.wantErr != "" {
				var vErr ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if vErr.Error() != tt.wantErr {
					t.Errorf("got message %q, want %q", vErr.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubmitClaim(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	coordinator := newCoordinator(store)

	finder, _ := newAccount(t, store, "walker", cachequest.RoleParticipant)
	spot := newSpot(t, store, "Old Harbour Bell", "BELL01")

	result, err := coordinator.SubmitClaim(ctx, finder, "bell01")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if result.SpotID != spot.ID {
		t.Errorf("got spot id %q, want %q", result.SpotID, spot.ID)
	}
	if result.SpotName != "Old Harbour Bell" {
		t.Errorf("got spot name %q", result.SpotName)
	}
	if result.TotalFinds != 1 {
		t.Errorf("got total finds %d, want 1", result.TotalFinds)
	}
	if result.FoundAt == "" {
		t.Error("expected a found_at timestamp")
	}

	// Resubmitting the same code is rejected without disturbing the record.
	_, err = coordinator.SubmitClaim(ctx, finder, "BELL01")
	if !errors.Is(err, ErrDuplicateClaim) {
		t.Fatalf("expected ErrDuplicateClaim, got %v", err)
	}
	count, err := store.CountFinds(ctx, spot.ID)
	if err != nil {
		t.Fatalf("count finds: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d finds after duplicate, want 1", count)
	}
}

func TestSubmitClaimUnknownCode(t *testing.T) {
	store := setupStore(t)
	coordinator := newCoordinator(store)
	finder, _ := newAccount(t, store, "walker", cachequest.RoleParticipant)

	_, err := coordinator.SubmitClaim(context.Background(), finder, "ZZZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitClaimInactiveSpot(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	coordinator := newCoordinator(store)

	finder, _ := newAccount(t, store, "walker", cachequest.RoleParticipant)
	spot := newSpot(t, store, "Painted Stairs", "STAIRS")
	if _, err := store.DeactivateSpot(ctx, spot.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err := coordinator.SubmitClaim(ctx, finder, "STAIRS")
	if !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

// TestSubmitClaimConcurrent races many submissions of the same code by the
// same participant. The unique index decides: exactly one commits.
func TestSubmitClaimConcurrent(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	coordinator := newCoordinator(store)

	finder, _ := newAccount(t, store, "walker", cachequest.RoleParticipant)
	spot := newSpot(t, store, "Old Harbour Bell", "BELL01")

	const n = 16
	var successes, duplicates atomic.Int32

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := coordinator.SubmitClaim(ctx, finder, "BELL01")
			switch {
			case err == nil:
				successes.Add(1)
				return nil
			case errors.Is(err, ErrDuplicateClaim):
				duplicates.Add(1)
				return nil
			default:
				return fmt.Errorf("unexpected claim error: %w", err)
			}
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if successes.Load() != 1 {
		t.Errorf("got %d successes, want exactly 1", successes.Load())
	}
	if duplicates.Load() != n-1 {
		t.Errorf("got %d duplicates, want %d", duplicates.Load(), n-1)
	}

	count, err := store.CountFinds(ctx, spot.ID)
	if err != nil {
		t.Fatalf("count finds: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d finds, want 1", count)
	}
}
