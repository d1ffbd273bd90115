package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// Messages sent with 401 responses.
const (
	msgNotAuthenticated   = "Not authenticated"
	msgInvalidCredentials = "Invalid authentication credentials"
)

// AuthMiddleware resolves the bearer token of each request to a user ID.
type AuthMiddleware struct {
	access service.AccessService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(access service.AccessService) *AuthMiddleware {
	return &AuthMiddleware{access: access}
}

// Authenticate rejects requests without a valid bearer token and stores the
// resolved user ID in the context of those that have one.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w, r, msgNotAuthenticated)
			return
		}

		userID, err := m.access.ResolveIdentity(r.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				unauthorized(w, r, msgInvalidCredentials)
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"An unexpected error occurred", err)
			return
		}

		ctx := shared.WithUserID(r.Context(), userID)
		ctx = logger.WithLogger(ctx, logger.FromContext(ctx).With(slog.String("user_id", userID.String())))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	shared.RespondWithError(w, r, http.StatusUnauthorized, message)
}
