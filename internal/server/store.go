package server

import (
	"context"
	"time"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

// SpotUpdate holds a partial spot edit. Nil fields are left unchanged; the
// unique code and exact identity of a spot never change after creation.
type SpotUpdate struct {
	Name              *string
	Description       *string
	Clue              *string
	Lat               *float64
	Lng               *float64
	FuzzyRadiusMeters *int
	IsActive          *bool
}

// ParticipantUpdate holds a partial participant edit.
type ParticipantUpdate struct {
	DisplayName *string
	Role        *cachequest.Role
	IsActive    *bool
}

// FindRecord is a find joined with its spot and finder, as exposed by the
// listing and polling endpoints.
type FindRecord struct {
	SpotID          string
	SpotName        string
	ParticipantName string
	FoundAt         string
}

// Store is the persistence collaborator. The (spot, participant) uniqueness
// of finds and the delete protection of spots with finds are enforced at this
// layer, not merely in application logic.
type Store interface {
	ParticipantFromToken(ctx context.Context, token string) (cachequest.Participant, error)
	CreateSession(ctx context.Context, participantID string) (string, error)

	CreateParticipant(ctx context.Context, username, displayName string, role cachequest.Role) (cachequest.Participant, error)
	GetParticipant(ctx context.Context, id string) (cachequest.Participant, error)
	ListParticipants(ctx context.Context) ([]cachequest.Participant, error)
	UpdateParticipant(ctx context.Context, id string, upd ParticipantUpdate) (cachequest.Participant, error)
	DeleteParticipant(ctx context.Context, id string) error

	CreateSpot(ctx context.Context, spot cachequest.Spot) (cachequest.Spot, error)
	GetSpot(ctx context.Context, id string) (cachequest.Spot, error)
	SpotByCode(ctx context.Context, code string) (cachequest.Spot, error)
	ListSpots(ctx context.Context, includeInactive bool) ([]cachequest.Spot, error)
	UpdateSpot(ctx context.Context, id string, upd SpotUpdate) (cachequest.Spot, error)
	DeactivateSpot(ctx context.Context, id string) (findCount int, err error)
	DeleteSpot(ctx context.Context, id string) error
	CodeExists(ctx context.Context, code string) (bool, error)

	InsertFind(ctx context.Context, spotID, participantID string) (cachequest.Find, error)
	CountFinds(ctx context.Context, spotID string) (int, error)
	SpotFinds(ctx context.Context, spotID string) ([]FindRecord, error)
	ParticipantFinds(ctx context.Context, participantID string) ([]FindRecord, error)
	FindsSince(ctx context.Context, since time.Time) ([]FindRecord, error)
}
