package server

import (
	"errors"
	"net/http"
)

// ClaimRequest is the body of POST /api/spots/claim.
type ClaimRequest struct {
	Code string `json:"code"`
}

// ClaimResponse is returned on a successful claim.
type ClaimResponse struct {
	SpotID     string `json:"spot_id"`
	SpotName   string `json:"spot_name"`
	FoundAt    string `json:"found_at"`
	TotalFinds int    `json:"total_finds"`
	Message    string `json:"message"`
}

func handleClaim(coordinator *ClaimCoordinator, limiter *claimLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participant := participantFrom(r)

		if !limiter.allow(participant.ID) {
			writeErrorCode(w, http.StatusTooManyRequests, codeRateLimited,
				"Too many claim attempts. Try again later.")
			return
		}

		var req ClaimRequest
		if err := readJSON(r, &req); err != nil {
			writeErrorCode(w, http.StatusBadRequest, codeValidation, "invalid request body")
			return
		}

		result, err := coordinator.SubmitClaim(r.Context(), participant, req.Code)

		var vErr ValidationError
		switch {
		case errors.As(err, &vErr):
			writeErrorCode(w, http.StatusBadRequest, codeValidation, vErr.Error())
		case errors.Is(err, ErrNotFound):
			writeErrorCode(w, http.StatusNotFound, codeNotFound, "No cache found with that code.")
		case errors.Is(err, ErrInactive):
			writeErrorCode(w, http.StatusConflict, codeInactive, "This cache is no longer active.")
		case errors.Is(err, ErrDuplicateClaim):
			// Non-fatal: surfaced as "already claimed", never a 5xx.
			writeErrorCode(w, http.StatusBadRequest, codeDuplicateClaim, "You already found this cache!")
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
		default:
			writeJSON(w, http.StatusCreated, ClaimResponse{
				SpotID:     result.SpotID,
				SpotName:   result.SpotName,
				FoundAt:    result.FoundAt,
				TotalFinds: result.TotalFinds,
				Message:    "Cache found!",
			})
		}
	}
}
