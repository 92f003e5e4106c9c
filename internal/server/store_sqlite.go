package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// isUniqueViolation reports whether err is a SQLite unique-index violation.
// The libSQL driver exposes no typed errors, so this matches the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func (s *SQLiteStore) ParticipantFromToken(ctx context.Context, token string) (cachequest.Participant, error) {
	var p cachequest.Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.username, p.display_name, p.role, p.is_active, p.created_at,
			(SELECT COUNT(*) FROM finds f WHERE f.participant_id = p.id)
		FROM sessions s
		JOIN participants p ON p.id = s.participant_id
		WHERE s.token = ?
	`, token).Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.IsActive, &p.CreatedAt, &p.FindCount)
	if errors.Is(err, sql.ErrNoRows) {
		return p, errNoSession
	}
	return p, err
}

func (s *SQLiteStore) CreateSession(ctx context.Context, participantID string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions (token, participant_id)
		VALUES (lower(hex(randomblob(16))), ?)
		RETURNING token
	`, participantID).Scan(&token)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

func (s *SQLiteStore) CreateParticipant(ctx context.Context, username, displayName string, role cachequest.Role) (cachequest.Participant, error) {
	var p cachequest.Participant
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO participants (username, display_name, role)
		VALUES (?, ?, ?)
		RETURNING id, username, display_name, role, is_active, created_at
	`, username, displayName, string(role)).Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.IsActive, &p.CreatedAt)
	if isUniqueViolation(err) {
		return p, ValidationError("Username already taken.")
	}
	return p, err
}

func (s *SQLiteStore) GetParticipant(ctx context.Context, id string) (cachequest.Participant, error) {
	var p cachequest.Participant
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, role, is_active, created_at,
			(SELECT COUNT(*) FROM finds f WHERE f.participant_id = participants.id)
		FROM participants
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.IsActive, &p.CreatedAt, &p.FindCount)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]cachequest.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, display_name, role, is_active, created_at,
			(SELECT COUNT(*) FROM finds f WHERE f.participant_id = participants.id)
		FROM participants
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []cachequest.Participant
	for rows.Next() {
		var p cachequest.Participant
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.IsActive, &p.CreatedAt, &p.FindCount); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (s *SQLiteStore) UpdateParticipant(ctx context.Context, id string, upd ParticipantUpdate) (cachequest.Participant, error) {
	var p cachequest.Participant
	var role *string
	if upd.Role != nil {
		r := string(*upd.Role)
		role = &r
	}
	err := s.db.QueryRowContext(ctx, `
		UPDATE participants SET
			display_name = COALESCE(?, display_name),
			role = COALESCE(?, role),
			is_active = COALESCE(?, is_active)
		WHERE id = ?
		RETURNING id, username, display_name, role, is_active, created_at
	`, upd.DisplayName, role, upd.IsActive, id).Scan(&p.ID, &p.Username, &p.DisplayName, &p.Role, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// DeleteParticipant hard-deletes the participant; their finds cascade and
// their sessions are invalidated by the same cascade.
func (s *SQLiteStore) DeleteParticipant(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateSpot(ctx context.Context, spot cachequest.Spot) (cachequest.Spot, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO spots (name, description, clue, lat, lng, fuzzy_radius_meters, code, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''))
		RETURNING id, is_active, created_at, updated_at
	`, spot.Name, spot.Description, spot.Clue, spot.Lat, spot.Lng, spot.FuzzyRadiusMeters, spot.Code, spot.CreatedBy).
		Scan(&spot.ID, &spot.IsActive, &spot.CreatedAt, &spot.UpdatedAt)
	if err != nil {
		return spot, fmt.Errorf("inserting spot: %w", err)
	}
	return spot, nil
}

const spotColumns = `
	id, name, description, clue, lat, lng, fuzzy_radius_meters, code, is_active,
	COALESCE(created_by, ''), created_at, updated_at,
	(SELECT COUNT(*) FROM finds f WHERE f.spot_id = spots.id)
`

func scanSpot(row interface{ Scan(...any) error }) (cachequest.Spot, error) {
	var sp cachequest.Spot
	err := row.Scan(&sp.ID, &sp.Name, &sp.Description, &sp.Clue, &sp.Lat, &sp.Lng,
		&sp.FuzzyRadiusMeters, &sp.Code, &sp.IsActive, &sp.CreatedBy,
		&sp.CreatedAt, &sp.UpdatedAt, &sp.FindCount)
	return sp, err
}

func (s *SQLiteStore) GetSpot(ctx context.Context, id string) (cachequest.Spot, error) {
	sp, err := scanSpot(s.db.QueryRowContext(ctx, `
		SELECT `+spotColumns+` FROM spots WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return sp, ErrNotFound
	}
	return sp, err
}

// SpotByCode expects an already-normalized (upper-case) code.
func (s *SQLiteStore) SpotByCode(ctx context.Context, code string) (cachequest.Spot, error) {
	sp, err := scanSpot(s.db.QueryRowContext(ctx, `
		SELECT `+spotColumns+` FROM spots WHERE code = ?
	`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return sp, ErrNotFound
	}
	return sp, err
}

func (s *SQLiteStore) ListSpots(ctx context.Context, includeInactive bool) ([]cachequest.Spot, error) {
	query := `SELECT ` + spotColumns + ` FROM spots`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []cachequest.Spot
	for rows.Next() {
		sp, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

func (s *SQLiteStore) UpdateSpot(ctx context.Context, id string, upd SpotUpdate) (cachequest.Spot, error) {
	var sp cachequest.Spot
	err := s.db.QueryRowContext(ctx, `
		UPDATE spots SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			clue = COALESCE(?, clue),
			lat = COALESCE(?, lat),
			lng = COALESCE(?, lng),
			fuzzy_radius_meters = COALESCE(?, fuzzy_radius_meters),
			is_active = COALESCE(?, is_active),
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
		RETURNING `+spotColumns+`
	`, upd.Name, upd.Description, upd.Clue, upd.Lat, upd.Lng,
		upd.FuzzyRadiusMeters, upd.IsActive, id).
		Scan(&sp.ID, &sp.Name, &sp.Description, &sp.Clue, &sp.Lat, &sp.Lng,
			&sp.FuzzyRadiusMeters, &sp.Code, &sp.IsActive, &sp.CreatedBy,
			&sp.CreatedAt, &sp.UpdatedAt, &sp.FindCount)
	if errors.Is(err, sql.ErrNoRows) {
		return sp, ErrNotFound
	}
	return sp, err
}

// DeactivateSpot flips is_active off and reports how many finds the spot
// already has. Deactivation always succeeds regardless of finds.
func (s *SQLiteStore) DeactivateSpot(ctx context.Context, id string) (int, error) {
	var findCount int
	err := s.db.QueryRowContext(ctx, `
		UPDATE spots SET is_active = 0, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
		RETURNING (SELECT COUNT(*) FROM finds f WHERE f.spot_id = spots.id)
	`, id).Scan(&findCount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return findCount, err
}

// DeleteSpot hard-deletes a spot. A spot with finds is not deletable: the
// pre-check returns ErrHasFinds, and the RESTRICT foreign key backs that up
// structurally should two deletions race.
func (s *SQLiteStore) DeleteSpot(ctx context.Context, id string) error {
	n, err := s.CountFinds(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasFinds
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM spots WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return ErrHasFinds
	}
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM spots WHERE code = ?`, code).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// InsertFind atomically records a find. The unique index on
// (spot_id, participant_id) decides races: exactly one of any number of
// concurrent inserts commits, the rest get ErrDuplicateClaim.
func (s *SQLiteStore) InsertFind(ctx context.Context, spotID, participantID string) (cachequest.Find, error) {
	var f cachequest.Find
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO finds (spot_id, participant_id)
		VALUES (?, ?)
		RETURNING id, spot_id, participant_id, found_at
	`, spotID, participantID).Scan(&f.ID, &f.SpotID, &f.ParticipantID, &f.FoundAt)
	if isUniqueViolation(err) {
		return f, ErrDuplicateClaim
	}
	if err != nil {
		return f, fmt.Errorf("inserting find: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) CountFinds(ctx context.Context, spotID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM finds WHERE spot_id = ?
	`, spotID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) SpotFinds(ctx context.Context, spotID string) ([]FindRecord, error) {
	return s.queryFinds(ctx, `
		SELECT f.spot_id, s.name,
			CASE WHEN p.display_name != '' THEN p.display_name ELSE p.username END,
			f.found_at
		FROM finds f
		JOIN spots s ON s.id = f.spot_id
		JOIN participants p ON p.id = f.participant_id
		WHERE f.spot_id = ?
		ORDER BY f.found_at DESC
	`, spotID)
}

func (s *SQLiteStore) ParticipantFinds(ctx context.Context, participantID string) ([]FindRecord, error) {
	return s.queryFinds(ctx, `
		SELECT f.spot_id, s.name,
			CASE WHEN p.display_name != '' THEN p.display_name ELSE p.username END,
			f.found_at
		FROM finds f
		JOIN spots s ON s.id = f.spot_id
		JOIN participants p ON p.id = f.participant_id
		WHERE f.participant_id = ?
		ORDER BY f.found_at DESC
	`, participantID)
}

// FindsSince lists finds on active spots after the given instant, oldest
// first, for clients reconciling state over the polling fallback.
func (s *SQLiteStore) FindsSince(ctx context.Context, since time.Time) ([]FindRecord, error) {
	// found_at is stored as an RFC 3339 UTC string, so string comparison
	// matches chronological order.
	return s.queryFinds(ctx, `
		SELECT f.spot_id, s.name,
			CASE WHEN p.display_name != '' THEN p.display_name ELSE p.username END,
			f.found_at
		FROM finds f
		JOIN spots s ON s.id = f.spot_id
		JOIN participants p ON p.id = f.participant_id
		WHERE f.found_at > ? AND s.is_active = 1
		ORDER BY f.found_at
	`, since.UTC().Format("2006-01-02T15:04:05.000Z"))
}

func (s *SQLiteStore) queryFinds(ctx context.Context, query string, args ...any) ([]FindRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var finds []FindRecord
	for rows.Next() {
		var f FindRecord
		if err := rows.Scan(&f.SpotID, &f.SpotName, &f.ParticipantName, &f.FoundAt); err != nil {
			return nil, err
		}
		finds = append(finds, f)
	}
	return finds, rows.Err()
}
