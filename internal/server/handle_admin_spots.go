package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
	"github.com/perpetrator1/Cache-Quest/internal/geo"
)

// AdminSpotRequest is the body for creating a spot. Lat/Lng are accepted on
// input only; no response ever echoes them back.
type AdminSpotRequest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Clue              string   `json:"clue"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	FuzzyRadiusMeters int      `json:"fuzzy_radius_meters"`
}

// AdminSpotUpdateRequest is the body for PATCH; absent fields stay unchanged.
type AdminSpotUpdateRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Clue              *string  `json:"clue"`
	Lat               *float64 `json:"lat"`
	Lng               *float64 `json:"lng"`
	FuzzyRadiusMeters *int     `json:"fuzzy_radius_meters"`
	IsActive          *bool    `json:"is_active"`
}

// AdminSpotDetail is the operator-facing view of a spot. It carries the claim
// code but, like every other response, not the exact coordinates.
type AdminSpotDetail struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Clue              string `json:"clue"`
	Code              string `json:"code"`
	FuzzyRadiusMeters int    `json:"fuzzy_radius_meters"`
	IsActive          bool   `json:"is_active"`
	FindCount         int    `json:"find_count"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func adminSpotDetail(sp cachequest.Spot) AdminSpotDetail {
	return AdminSpotDetail{
		ID:                sp.ID,
		Name:              sp.Name,
		Description:       sp.Description,
		Clue:              sp.Clue,
		Code:              sp.Code,
		FuzzyRadiusMeters: sp.FuzzyRadiusMeters,
		IsActive:          sp.IsActive,
		FindCount:         sp.FindCount,
		CreatedAt:         sp.CreatedAt,
		UpdatedAt:         sp.UpdatedAt,
	}
}

func validateSpotRequest(req AdminSpotRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ValidationError("Name cannot be blank.")
	}
	if strings.TrimSpace(req.Clue) == "" {
		return ValidationError("Clue cannot be blank.")
	}
	if req.Lat == nil || req.Lng == nil {
		return ValidationError("Coordinates are required.")
	}
	if !geo.ValidCoordinates(*req.Lat, *req.Lng) {
		return ValidationError("Latitude must be between -90 and 90, longitude between -180 and 180.")
	}
	if req.FuzzyRadiusMeters < cachequest.MinFuzzyRadiusMeters || req.FuzzyRadiusMeters > cachequest.MaxFuzzyRadiusMeters {
		return ValidationError(fmt.Sprintf("Fuzzy radius must be between %d and %d meters.",
			cachequest.MinFuzzyRadiusMeters, cachequest.MaxFuzzyRadiusMeters))
	}
	return nil
}

func handleAdminCreateSpot(store Store, codegen *CodeGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminSpotRequest
		if err := readJSON(r, &req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}
		if req.FuzzyRadiusMeters == 0 {
			req.FuzzyRadiusMeters = 10
		}
		if err := validateSpotRequest(req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}

		code, err := codegen.Generate(r.Context())
		if err != nil {
			// Exhaustion is operator-visible, not hidden behind a retry.
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		spot, err := store.CreateSpot(r.Context(), cachequest.Spot{
			Name:              strings.TrimSpace(req.Name),
			Description:       req.Description,
			Clue:              req.Clue,
			Lat:               *req.Lat,
			Lng:               *req.Lng,
			FuzzyRadiusMeters: req.FuzzyRadiusMeters,
			Code:              code,
			CreatedBy:         participantFrom(r).ID,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, adminSpotDetail(spot))
	}
}

func handleAdminListSpots(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spots, err := store.ListSpots(r.Context(), true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]AdminSpotDetail, 0, len(spots))
		for _, sp := range spots {
			items = append(items, adminSpotDetail(sp))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminUpdateSpot(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminSpotUpdateRequest
		if err := readJSON(r, &req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}

		if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "Name cannot be blank.")
			return
		}
		if (req.Lat != nil) != (req.Lng != nil) {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "Provide both latitude and longitude.")
			return
		}
		if req.Lat != nil && !geo.ValidCoordinates(*req.Lat, *req.Lng) {
			writeErrorCode(w, http.StatusBadRequest, codeValidation,
				"Latitude must be between -90 and 90, longitude between -180 and 180.")
			return
		}
		if req.FuzzyRadiusMeters != nil &&
			(*req.FuzzyRadiusMeters < cachequest.MinFuzzyRadiusMeters || *req.FuzzyRadiusMeters > cachequest.MaxFuzzyRadiusMeters) {
			writeErrorCode(w, http.StatusBadRequest, codeValidation,
				fmt.Sprintf("Fuzzy radius must be between %d and %d meters.",
					cachequest.MinFuzzyRadiusMeters, cachequest.MaxFuzzyRadiusMeters))
			return
		}

		spot, err := store.UpdateSpot(r.Context(), chi.URLParam(r, "id"), SpotUpdate{
			Name:              req.Name,
			Description:       req.Description,
			Clue:              req.Clue,
			Lat:               req.Lat,
			Lng:               req.Lng,
			FuzzyRadiusMeters: req.FuzzyRadiusMeters,
			IsActive:          req.IsActive,
		})
		if errors.Is(err, ErrNotFound) {
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "Spot not found.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, adminSpotDetail(spot))
	}
}

func handleAdminDeactivateSpot(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		findCount, err := store.DeactivateSpot(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "Spot not found.")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := map[string]string{"message": "Spot deactivated."}
		if findCount > 0 {
			resp["warning"] = fmt.Sprintf("Note: %d users had already found this cache.", findCount)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleAdminDeleteSpot(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteSpot(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, ErrNotFound):
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "Spot not found.")
		case errors.Is(err, ErrHasFinds):
			writeErrorCode(w, http.StatusConflict, codeConstraintViolation,
				"Cannot delete a spot that has finds. Deactivate it instead.")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
		default:
			writeJSON(w, http.StatusOK, map[string]string{"message": "Spot deleted."})
		}
	}
}
