package server

import (
	"context"
	"log/slog"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

// SeedDemo creates a demo operator, a participant, and a couple of spots so a
// fresh instance is explorable. Idempotent: does nothing if any participant
// exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store Store, codegen *CodeGenerator) error {
	existing, err := store.ListParticipants(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	operator, err := store.CreateParticipant(ctx, "demo-operator", "Demo Operator", cachequest.RoleOperator)
	if err != nil {
		return err
	}
	participant, err := store.CreateParticipant(ctx, "demo-finder", "Demo Finder", cachequest.RoleParticipant)
	if err != nil {
		return err
	}

	operatorToken, err := store.CreateSession(ctx, operator.ID)
	if err != nil {
		return err
	}
	participantToken, err := store.CreateSession(ctx, participant.ID)
	if err != nil {
		return err
	}

	spots := []cachequest.Spot{
		{
			Name:              "Old Harbour Bell",
			Description:       "A weathered bell near the pier.",
			Clue:              "Where ships once rang their arrival, look beneath the green bench.",
			Lat:               37.8083,
			Lng:               -122.4098,
			FuzzyRadiusMeters: 25,
		},
		{
			Name:              "Painted Stairs",
			Description:       "Mosaic steps up the hill.",
			Clue:              "Count sixteen tiles from the bottom and check the planter on your left.",
			Lat:               37.7562,
			Lng:               -122.4682,
			FuzzyRadiusMeters: 50,
		},
	}
	for _, sp := range spots {
		code, err := codegen.Generate(ctx)
		if err != nil {
			return err
		}
		sp.Code = code
		sp.CreatedBy = operator.ID
		if _, err := store.CreateSpot(ctx, sp); err != nil {
			return err
		}
	}

	logger.Info("demo data seeded",
		"operator_token", operatorToken,
		"participant_token", participantToken,
	)
	return nil
}
