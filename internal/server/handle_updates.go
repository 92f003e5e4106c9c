package server

import (
	"net/http"
	"time"
)

// FindUpdateItem is one entry of the polling fallback for clients without a
// live connection.
type FindUpdateItem struct {
	SpotID          string `json:"spot_id"`
	SpotName        string `json:"spot_name"`
	FoundByUsername string `json:"found_by_username"`
	FoundAt         string `json:"found_at"`
}

func handleSpotUpdates(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sinceParam := r.URL.Query().Get("since")
		if sinceParam == "" {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "Provide a valid ISO 8601 timestamp.")
			return
		}

		since, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "Provide a valid ISO 8601 timestamp.")
			return
		}

		finds, err := store.FindsSince(r.Context(), since)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]FindUpdateItem, 0, len(finds))
		for _, f := range finds {
			items = append(items, FindUpdateItem{
				SpotID:          f.SpotID,
				SpotName:        f.SpotName,
				FoundByUsername: f.ParticipantName,
				FoundAt:         f.FoundAt,
			})
		}
		writeJSON(w, http.StatusOK, items)
	}
}
