package server

import (
	"context"
	"net/http"

	"github.com/perpetrator1/Cache-Quest/internal/cachequest"
)

type ctxKey int

const ctxKeyParticipant ctxKey = iota

// authMiddleware resolves the bearer token to a participant and rejects
// deactivated accounts. Deactivated participants retain their finds but
// cannot authenticate, connect, or claim.
func authMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			participant, err := participantFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}
			if !participant.IsActive {
				writeError(w, http.StatusForbidden, "Your account has been deactivated. Contact an admin.")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyParticipant, participant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireOperator guards the admin surface. Runs inside authMiddleware.
func requireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if participantFrom(r).Role != cachequest.RoleOperator {
			writeError(w, http.StatusForbidden, "Operator privileges required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func participantFrom(r *http.Request) cachequest.Participant {
	return r.Context().Value(ctxKeyParticipant).(cachequest.Participant)
}
