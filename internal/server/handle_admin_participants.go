package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

// AdminParticipantRequest is the body for creating an account. Accounts are
// created by operators only; there is no self-registration.
type AdminParticipantRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// AdminParticipantUpdateRequest is the PATCH body; absent fields stay
// unchanged.
type AdminParticipantUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"is_active"`
}

// AdminParticipantDetail is the operator-facing view of an account.
type AdminParticipantDetail struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
	FindCount   int    `json:"find_count"`
	CreatedAt   string `json:"created_at"`
}

func adminParticipantDetail(p cachequest.Participant) AdminParticipantDetail {
	return AdminParticipantDetail{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		IsActive:    p.IsActive,
		FindCount:   p.FindCount,
		CreatedAt:   p.CreatedAt,
	}
}

func parseRole(raw string) (cachequest.Role, bool) {
	switch cachequest.Role(raw) {
	case cachequest.RoleOperator, cachequest.RoleParticipant:
		return cachequest.Role(raw), true
	default:
		return "", false
	}
}

func handleAdminCreateParticipant(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminParticipantRequest
		if err := readJSON(r, &req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "Username cannot be blank.")
			return
		}
		if req.Role == "" {
			req.Role = string(cachequest.RoleParticipant)
		}
		role, ok := parseRole(req.Role)
		if !ok {
			writeErrorCode(w, http.StatusBadRequest, codeValidation,
				"Role must be one of: operator, participant.")
			return
		}

		p, err := store.CreateParticipant(r.Context(), req.Username, req.DisplayName, role)
		var vErr ValidationError
		if errors.As(err, &vErr) {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, vErr.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, adminParticipantDetail(p))
	}
}

func handleAdminListParticipants(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participants, err := store.ListParticipants(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]AdminParticipantDetail, 0, len(participants))
		for _, p := range participants {
			items = append(items, adminParticipantDetail(p))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminGetParticipant(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetParticipant(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "Participant not found.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, adminParticipantDetail(p))
	}
}

func handleAdminUpdateParticipant(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminParticipantUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}

		upd := ParticipantUpdate{DisplayName: req.DisplayName, IsActive: req.IsActive}
		if req.Role != nil {
			role, ok := parseRole(*req.Role)
			if !ok {
				writeErrorCode(w, http.StatusBadRequest, codeValidation,
					"Role must be one of: operator, participant.")
				return
			}
			upd.Role = &role
		}

		id := chi.URLParam(r, "id")
		self := participantFrom(r)

		// Operators cannot lock themselves out.
		if id == self.ID {
			if req.IsActive != nil && !*req.IsActive {
				writeErrorCode(w, http.StatusBadRequest, codeValidation,
					"You cannot deactivate your own account.")
				return
			}
			if upd.Role != nil && *upd.Role != cachequest.RoleOperator {
				writeErrorCode(w, http.StatusBadRequest, codeValidation,
					"You cannot change your own role.")
				return
			}
		}

		p, err := store.UpdateParticipant(r.Context(), id, upd)
		if errors.Is(err, ErrNotFound) {
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "Participant not found.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, adminParticipantDetail(p))
	}
}

// handleAdminDeleteParticipant hard-deletes an account; its finds cascade
// away with it.
func handleAdminDeleteParticipant(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == participantFrom(r).ID {
			writeErrorCode(w, http.StatusBadRequest, codeValidation,
				"You cannot delete your own account.")
			return
		}

		err := store.DeleteParticipant(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "Participant not found.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Participant deleted."})
	}
}
