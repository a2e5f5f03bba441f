package middleware

import (
	"net/http"

	"github.com/KunalBagaria/tokengate/services/identity"
	"github.com/KunalBagaria/tokengate/utils"
	"go.uber.org/zap"
)

// AuthMiddleware guards account routes that need a logged-in user
type AuthMiddleware struct {
	sessions identity.SessionProvider
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions identity.SessionProvider, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
	}
}

// RequireSession rejects requests without a valid session and stores the
// session's user id in the request context
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		if m.sessions == nil {
			m.logger.Error("session provider not configured",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Not logged in")
			return
		}

		userID, err := m.sessions.UserID(r)
		if err != nil || userID == "" {
			m.logger.Debug("no session",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Not logged in")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(ctx, userID)))
	})
}
