package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

// ClaimResult is what a successful claim returns to the submitting client.
type ClaimResult struct {
	SpotID     string
	SpotName   string
	FoundAt    string
	TotalFinds int
}

// ClaimCoordinator validates a submitted code and atomically commits the
// find. The storage-level unique index is the source of truth for duplicate
// detection, so concurrent submissions from any number of service instances
// resolve to exactly one success. A broadcast goes out only after the insert
// committed; a rejected attempt never publishes.
type ClaimCoordinator struct {
	store       Store
	broadcaster *Broadcaster
	logger      *slog.Logger
}

func NewClaimCoordinator(store Store, broadcaster *Broadcaster, logger *slog.Logger) *ClaimCoordinator {
	return &ClaimCoordinator{store: store, broadcaster: broadcaster, logger: logger}
}

// validateCode normalizes a submitted code, rejecting blank input, non-
// alphanumeric characters, and wrong lengths with user-facing messages.
func validateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", ValidationError("Please provide a cache code.")
	}
	for _, r := range code {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum {
			return "", ValidationError("Invalid code format.")
		}
	}
	if len(code) != codeLength {
		return "", ValidationError(fmt.Sprintf("Cache codes are %d characters long.", codeLength))
	}
	return strings.ToUpper(code), nil
}

// SubmitClaim resolves the code to an active spot and inserts the find.
// Errors: ValidationError for malformed codes, ErrNotFound for unknown codes,
// ErrInactive for deactivated spots, ErrDuplicateClaim when this participant
// already found the spot (non-fatal, shown as "already claimed").
func (c *ClaimCoordinator) SubmitClaim(ctx context.Context, participant cachequest.Participant, code string) (ClaimResult, error) {
	code, err := validateCode(code)
	if err != nil {
		return ClaimResult{}, err
	}

	spot, err := c.store.SpotByCode(ctx, code)
	if err != nil {
		return ClaimResult{}, err
	}
	if !spot.IsActive {
		return ClaimResult{}, ErrInactive
	}

	find, err := c.store.InsertFind(ctx, spot.ID, participant.ID)
	if err != nil {
		return ClaimResult{}, err
	}

	total, err := c.store.CountFinds(ctx, spot.ID)
	if err != nil {
		// The find committed; the count is cosmetic.
		c.logger.Error("counting finds after claim", "spot_id", spot.ID, "error", err)
		total = 1
	}

	c.logger.Info("cache found",
		"spot_id", spot.ID,
		"spot_name", spot.Name,
		"participant_id", participant.ID,
	)

	c.broadcaster.Publish(FoundEvent{
		Type:                   "cache.found",
		SpotID:                 spot.ID,
		SpotName:               spot.Name,
		ParticipantDisplayName: participant.Name(),
		FoundAt:                find.FoundAt,
	})

	return ClaimResult{
		SpotID:     spot.ID,
		SpotName:   spot.Name,
		FoundAt:    find.FoundAt,
		TotalFinds: total,
	}, nil
}
