package api

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/agristore/storefront-api/pkg/errors"
)

type contextKey string

const userIDKey contextKey = "userID"

// identityMiddleware resolves the caller identity. Cart and order ownership
// is keyed by the X-User-ID header, which the fronting gateway is trusted to
// set. Requests without it are rejected.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))

		if userID == "" {
			s.respondWithAppError(w, apperrors.NewUnauthorizedError("Missing X-User-ID header"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFrom returns the authenticated user id stored by identityMiddleware.
func userIDFrom(r *http.Request) string {
	if userID, ok := r.Context().Value(userIDKey).(string); ok {
		return userID
	}

	return ""
}

// clientIP returns the address the order record should attribute the request to.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return forwarded
	}

	host := r.RemoteAddr

	if idx := strings.LastIndex(host, ":"); idx > 0 {
		host = host[:idx]
	}

	return host
}
