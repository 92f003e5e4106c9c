package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses. Code is one of the
// stable taxonomy values (validation_error, not_found, inactive,
// duplicate_claim, constraint_violation, rate_limited) where applicable.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Cache Quest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Cache Quest geocaching game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/live
	getLive, _ := r.NewOperationContext(http.MethodGet, "/api/live")
	getLive.SetSummary("Live event channel")
	getLive.SetDescription("Upgrades to a WebSocket that pushes cache.found events. Pass the bearer token as the token query parameter. No replay: reconnecting clients must re-fetch the spot listing.")
	getLive.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	getLive.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getLive)

	// GET /api/spots
	listSpots, _ := r.NewOperationContext(http.MethodGet, "/api/spots")
	listSpots.SetSummary("List active spots")
	listSpots.SetDescription("Returns active spots with fuzzy coordinates and find counts. Requires Bearer token. Exact locations are never disclosed.")
	listSpots.AddRespStructure([]SpotListItem{}, openapi.WithHTTPStatus(http.StatusOK))
	listSpots.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listSpots)

	// POST /api/spots/claim
	postClaim, _ := r.NewOperationContext(http.MethodPost, "/api/spots/claim")
	postClaim.SetSummary("Claim a cache")
	postClaim.SetDescription("Submit a spot's 6-character code to register a find. Requires Bearer token.")
	postClaim.AddReqStructure(ClaimRequest{})
	postClaim.AddRespStructure(ClaimResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postClaim.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(postClaim)

	// GET /api/spots/updates
	getUpdates, _ := r.NewOperationContext(http.MethodGet, "/api/spots/updates")
	getUpdates.SetSummary("Poll recent finds")
	getUpdates.SetDescription("Returns finds on active spots after the since timestamp (RFC 3339). Fallback for clients without a live connection. Requires Bearer token.")
	getUpdates.AddRespStructure([]FindUpdateItem{}, openapi.WithHTTPStatus(http.StatusOK))
	getUpdates.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getUpdates)

	// GET /api/spots/{id}/clue
	getClue, _ := r.NewOperationContext(http.MethodGet, "/api/spots/{id}/clue")
	getClue.SetSummary("Get clue")
	getClue.SetDescription("Returns the clue with the spot's stable fuzzy point and radius. Requires Bearer token.")
	getClue.AddRespStructure(ClueResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getClue.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getClue)

	// GET /api/spots/{id}/finds
	getSpotFinds, _ := r.NewOperationContext(http.MethodGet, "/api/spots/{id}/finds")
	getSpotFinds.SetSummary("List spot finders")
	getSpotFinds.SetDescription("Returns who found the spot and when. Requires Bearer token.")
	getSpotFinds.AddRespStructure([]SpotFindItem{}, openapi.WithHTTPStatus(http.StatusOK))
	getSpotFinds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSpotFinds)

	// GET /api/users/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/users/me")
	getMe.SetSummary("Current participant")
	getMe.SetDescription("Returns the authenticated participant. Requires Bearer token.")
	getMe.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/users/me/finds
	getMyFinds, _ := r.NewOperationContext(http.MethodGet, "/api/users/me/finds")
	getMyFinds.SetSummary("My find history")
	getMyFinds.SetDescription("Returns the caller's finds, newest first. Requires Bearer token.")
	getMyFinds.AddRespStructure([]MyFindItem{}, openapi.WithHTTPStatus(http.StatusOK))
	getMyFinds.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMyFinds)

	// GET /api/admin/spots
	adminListSpots, _ := r.NewOperationContext(http.MethodGet, "/api/admin/spots")
	adminListSpots.SetSummary("List all spots")
	adminListSpots.SetDescription("Returns every spot, active and inactive, with claim codes. Requires operator role.")
	adminListSpots.AddRespStructure([]AdminSpotDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	adminListSpots.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(adminListSpots)

	// POST /api/admin/spots
	createSpot, _ := r.NewOperationContext(http.MethodPost, "/api/admin/spots")
	createSpot.SetSummary("Create spot")
	createSpot.SetDescription("Creates a spot and assigns its unique claim code. Requires operator role.")
	createSpot.AddReqStructure(AdminSpotRequest{})
	createSpot.AddRespStructure(AdminSpotDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSpot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createSpot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(createSpot)

	// PATCH /api/admin/spots/{id}
	updateSpot, _ := r.NewOperationContext(http.MethodPatch, "/api/admin/spots/{id}")
	updateSpot.SetSummary("Update spot")
	updateSpot.SetDescription("Partially updates a spot. The claim code never changes. Requires operator role.")
	updateSpot.AddReqStructure(AdminSpotUpdateRequest{})
	updateSpot.AddRespStructure(AdminSpotDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	updateSpot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateSpot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateSpot)

	// POST /api/admin/spots/{id}/deactivate
	deactivateSpot, _ := r.NewOperationContext(http.MethodPost, "/api/admin/spots/{id}/deactivate")
	deactivateSpot.SetSummary("Deactivate spot")
	deactivateSpot.SetDescription("Soft-deletes a spot. Always succeeds regardless of existing finds. Requires operator role.")
	deactivateSpot.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deactivateSpot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deactivateSpot)

	// DELETE /api/admin/spots/{id}
	deleteSpot, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/spots/{id}")
	deleteSpot.SetSummary("Delete spot")
	deleteSpot.SetDescription("Hard-deletes a spot. Blocked if any finds exist. Requires operator role.")
	deleteSpot.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteSpot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteSpot.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteSpot)

	// GET /api/admin/participants
	listParticipants, _ := r.NewOperationContext(http.MethodGet, "/api/admin/participants")
	listParticipants.SetSummary("List participants")
	listParticipants.SetDescription("Returns all accounts with find counts. Requires operator role.")
	listParticipants.AddRespStructure([]AdminParticipantDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	listParticipants.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(listParticipants)

	// POST /api/admin/participants
	createParticipant, _ := r.NewOperationContext(http.MethodPost, "/api/admin/participants")
	createParticipant.SetSummary("Create participant")
	createParticipant.SetDescription("Creates an account. Requires operator role.")
	createParticipant.AddReqStructure(AdminParticipantRequest{})
	createParticipant.AddRespStructure(AdminParticipantDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createParticipant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createParticipant)

	// GET /api/admin/participants/{id}
	getParticipant, _ := r.NewOperationContext(http.MethodGet, "/api/admin/participants/{id}")
	getParticipant.SetSummary("Get participant")
	getParticipant.AddRespStructure(AdminParticipantDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getParticipant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getParticipant)

	// PATCH /api/admin/participants/{id}
	updateParticipant, _ := r.NewOperationContext(http.MethodPatch, "/api/admin/participants/{id}")
	updateParticipant.SetSummary("Update participant")
	updateParticipant.SetDescription("Partially updates an account. Deactivated accounts keep their finds but cannot authenticate. Requires operator role.")
	updateParticipant.AddReqStructure(AdminParticipantUpdateRequest{})
	updateParticipant.AddRespStructure(AdminParticipantDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	updateParticipant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateParticipant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateParticipant)

	// DELETE /api/admin/participants/{id}
	deleteParticipant, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/participants/{id}")
	deleteParticipant.SetSummary("Delete participant")
	deleteParticipant.SetDescription("Hard-deletes an account; its finds are cascade-deleted. Requires operator role.")
	deleteParticipant.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteParticipant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	deleteParticipant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteParticipant)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
