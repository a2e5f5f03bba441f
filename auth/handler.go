package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/KunalBagaria/tokengate/utils"
	"go.uber.org/zap"
)

const (
	// StateCookieName is the cookie name for OAuth state (CSRF)
	StateCookieName   = "oauth_state"
	stateCookieMaxAge = 600
)

// Provider runs the login provider's authorization code flow
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Sessions starts and ends the application session for a user
type Sessions interface {
	Start(w http.ResponseWriter, userID, email string) error
	End(w http.ResponseWriter)
}

// Handler handles OAuth2 authentication flows (login, callback, logout).
type Handler struct {
	provider    Provider
	sessions    Sessions
	frontEndURL string
	secure      bool
	logger      *zap.Logger
}

// NewHandler creates a new auth handler. frontEndURL is where users land
// after login and logout; secure marks the state cookie HTTPS-only.
func NewHandler(provider Provider, sessions Sessions, frontEndURL string, secure bool, logger *zap.Logger) *Handler {
	if frontEndURL == "" {
		frontEndURL = "/"
	}
	return &Handler{
		provider:    provider,
		sessions:    sessions,
		frontEndURL: frontEndURL,
		secure:      secure,
		logger:      logger,
	}
}

// HandleLogin redirects to the provider's consent page
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateSecureState()
	if err != nil {
		h.logger.Error("failed to generate state", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to initiate login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback verifies state, exchanges the code, and starts a session
// for the provider's user id
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	if code == "" {
		_ = utils.WriteBadRequest(w, "Missing authorization code", nil)
		return
	}
	if state == "" {
		_ = utils.WriteBadRequest(w, "Missing state parameter", nil)
		return
	}

	stateCookie, err := r.Cookie(StateCookieName)
	if err != nil || stateCookie.Value != state {
		_ = utils.WriteBadRequest(w, "Invalid or expired state", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("login exchange failed", zap.Error(err))
		_ = utils.WriteUnauthorized(w, "Authentication failed")
		return
	}

	if err := h.sessions.Start(w, profile.Sub, profile.Email); err != nil {
		h.logger.Error("failed to start session", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to start session")
		return
	}

	h.logger.Info("user logged in", zap.String("user_id", profile.Sub))
	http.Redirect(w, r, h.frontEndURL, http.StatusFound)
}

// HandleLogout clears the session cookie and returns to the front end
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(w)
	http.Redirect(w, r, h.frontEndURL, http.StatusFound)
}

func generateSecureState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
