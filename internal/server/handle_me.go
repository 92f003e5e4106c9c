package server

import "net/http"

// MeResponse describes the authenticated participant.
type MeResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	FindCount   int    `json:"find_count"`
	CreatedAt   string `json:"created_at"`
}

// MyFindItem is one entry of the caller's find history.
type MyFindItem struct {
	SpotID   string `json:"spot_id"`
	SpotName string `json:"spot_name"`
	FoundAt  string `json:"found_at"`
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := participantFrom(r)
		writeJSON(w, http.StatusOK, MeResponse{
			ID:          p.ID,
			Username:    p.Username,
			Role:        string(p.Role),
			DisplayName: p.DisplayName,
			FindCount:   p.FindCount,
			CreatedAt:   p.CreatedAt,
		})
	}
}

func handleMyFinds(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		finds, err := store.ParticipantFinds(r.Context(), participantFrom(r).ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]MyFindItem, 0, len(finds))
		for _, f := range finds {
			items = append(items, MyFindItem{SpotID: f.SpotID, SpotName: f.SpotName, FoundAt: f.FoundAt})
		}
		writeJSON(w, http.StatusOK, items)
	}
}
