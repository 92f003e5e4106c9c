package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/perpetrator1/Cache-Quest/internal/geo"
)

// SpotListItem is one entry of the participant-facing listing. Coordinates
// are always the fuzzy point; the exact location never leaves the server.
type SpotListItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	FuzzyLat  float64 `json:"fuzzy_lat"`
	FuzzyLng  float64 `json:"fuzzy_lng"`
	FindCount int     `json:"find_count"`
	IsActive  bool    `json:"is_active"`
}

// ClueResponse is returned by GET /api/spots/{id}/clue.
type ClueResponse struct {
	Clue              string  `json:"clue"`
	FuzzyLat          float64 `json:"fuzzy_lat"`
	FuzzyLng          float64 `json:"fuzzy_lng"`
	FuzzyRadiusMeters int     `json:"fuzzy_radius_meters"`
}

// SpotFindItem is one finder of a spot.
type SpotFindItem struct {
	Username string `json:"username"`
	FoundAt  string `json:"found_at"`
}

func handleListSpots(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spots, err := store.ListSpots(r.Context(), false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]SpotListItem, 0, len(spots))
		for _, sp := range spots {
			flat, flng := geo.FuzzyPoint(sp.Code, sp.Lat, sp.Lng, sp.FuzzyRadiusMeters)
			items = append(items, SpotListItem{
				ID:        sp.ID,
				Name:      sp.Name,
				FuzzyLat:  flat,
				FuzzyLng:  flng,
				FindCount: sp.FindCount,
				IsActive:  sp.IsActive,
			})
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleClue(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spot, err := store.GetSpot(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "Spot not found.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !spot.IsActive {
			writeErrorCode(w, http.StatusConflict, codeInactive, "This spot is no longer active.")
			return
		}

		flat, flng := geo.FuzzyPoint(spot.Code, spot.Lat, spot.Lng, spot.FuzzyRadiusMeters)
		writeJSON(w, http.StatusOK, ClueResponse{
			Clue:              spot.Clue,
			FuzzyLat:          flat,
			FuzzyLng:          flng,
			FuzzyRadiusMeters: spot.FuzzyRadiusMeters,
		})
	}
}

func handleSpotFinds(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if _, err := store.GetSpot(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeErrorCode(w, http.StatusNotFound, codeNotFound, "Spot not found.")
			} else {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		finds, err := store.SpotFinds(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]SpotFindItem, 0, len(finds))
		for _, f := range finds {
			items = append(items, SpotFindItem{Username: f.ParticipantName, FoundAt: f.FoundAt})
		}
		writeJSON(w, http.StatusOK, items)
	}
}
