package server

import (
	"net/http"
	"strings"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

// bearerToken extracts the credential from the Authorization header. Token
// issuance belongs to the external identity service; this server only ever
// resolves a presented token to a participant.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func participantFromRequest(r *http.Request, store Store) (cachequest.Participant, error) {
	token, ok := bearerToken(r)
	if !ok {
		return cachequest.Participant{}, errNoSession
	}
	return store.ParticipantFromToken(r.Context(), token)
}
