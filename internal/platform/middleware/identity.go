// Package middleware carries the HTTP middleware chain: request IDs, request
// logging, and identity extraction. Authentication itself belongs to the
// auth collaborator; this layer only verifies the session token it issued
// and stashes the identity in the request context.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "bidhall/pkg/domain"
	"bidhall/pkg/requestcontext"
)

// Identity extracts the authenticated caller from the request.
//
// Primary path: an HS256 bearer token minted by the auth collaborator with
// sub/email/name claims. When insecureHeaders is set (dev and handler tests),
// X-User-ID / X-User-Email / X-User-Name headers are trusted instead.
//
// Requests without identity still pass through: handlers decide whether an
// endpoint requires authentication (requestcontext.UserID returns the zero
// value for anonymous callers).
func Identity(signingKey string, insecureHeaders bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ident, ok := identityFromBearer(r, signingKey, logger); ok {
				ctx = requestcontext.WithIdentity(ctx, ident)
			} else if insecureHeaders {
				if ident, ok := identityFromHeaders(r); ok {
					ctx = requestcontext.WithIdentity(ctx, ident)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromBearer(r *http.Request, signingKey string, logger *slog.Logger) (requestcontext.Identity, bool) {
	authHeader := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		return requestcontext.Identity{}, false
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(signingKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		if logger != nil {
			logger.WarnContext(r.Context(), "rejected bearer token", "error", err)
		}
		return requestcontext.Identity{}, false
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return requestcontext.Identity{}, false
	}
	return requestcontext.Identity{
		UserID:      userID,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, true
}

func identityFromHeaders(r *http.Request) (requestcontext.Identity, bool) {
	userID, err := id.ParseUserID(r.Header.Get("X-User-ID"))
	if err != nil {
		return requestcontext.Identity{}, false
	}
	return requestcontext.Identity{
		UserID:      userID,
		Email:       r.Header.Get("X-User-Email"),
		DisplayName: r.Header.Get("X-User-Name"),
	}, true
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// RequestID assigns a fresh request ID and echoes it back to the client.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), requestID)))
	})
}

// RequestLogger logs each request with timing and status.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.InfoContext(r.Context(), "http request",
				"request_id", requestcontext.RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
