// Package cachequest defines the core domain types.
// It has zero external dependencies — everything here is pure Go.
package cachequest

// Role of an account. Operators manage spots and participants; participants
// hunt caches.
type Role string

const (
	RoleOperator    Role = "operator"
	RoleParticipant Role = "participant"
)

// Participant is an account created by an operator. There is no
// self-registration.
type Participant struct {
	ID          string
	Username    string
	DisplayName string
	Role        Role
	IsActive    bool
	FindCount   int
	CreatedAt   string
}

// Name returns the display name, falling back to the username.
func (p Participant) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Spot is an operator-defined geocache. Lat/Lng are the exact hidden
// coordinates and must never be serialized to a participant-facing response;
// only the fuzzy point derived from them is disclosed.
type Spot struct {
	ID                string
	Name              string
	Description       string
	Clue              string
	Lat               float64
	Lng               float64
	FuzzyRadiusMeters int
	Code              string
	IsActive          bool
	CreatedBy         string
	FindCount         int
	CreatedAt         string
	UpdatedAt         string
}

// Find records that a participant discovered a spot. At most one find exists
// per (spot, participant) pair, enforced by a unique index in storage.
type Find struct {
	ID            string
	SpotID        string
	ParticipantID string
	FoundAt       string
}

// Fuzzy radius limits in meters.
const (
	MinFuzzyRadiusMeters = 5
	MaxFuzzyRadiusMeters = 100
)
