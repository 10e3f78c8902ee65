package rest

import (
	"context"
	"net/http"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

type contextKey string

const identityKey = contextKey("identity")

// requireToken takes the caller identity from the token query parameter.
// The token is trusted as is, except that bot identities are reserved.
func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "token is required"})
			return
		}

		if entity.IsBot(token) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "token is reserved"})
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identity(r *http.Request) string {
	token, _ := r.Context().Value(identityKey).(string)
	return token
}
