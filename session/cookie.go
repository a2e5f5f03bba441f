package session

import (
	"errors"
	"fmt"
	"net/http"
)

// CookieName is the cookie holding the session token
const CookieName = "session"

// ErrNoSession is returned when the request carries no session cookie
var ErrNoSession = errors.New("no session")

// CookieProvider reads and writes the session cookie. It implements
// identity.SessionProvider.
type CookieProvider struct {
	codec  *Codec
	secure bool
}

// NewCookieProvider creates a provider; secure marks cookies HTTPS-only
func NewCookieProvider(codec *Codec, secure bool) *CookieProvider {
	return &CookieProvider{codec: codec, secure: secure}
}

// UserID returns the user id of the request's session
func (p *CookieProvider) UserID(r *http.Request) (string, error) {
	claims, err := p.Claims(r)
	if err != nil {
		return "", err
	}
	return claims.UserID(), nil
}

// Claims returns the verified claims of the request's session
func (p *CookieProvider) Claims(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	return p.codec.Parse(cookie.Value)
}

// Start issues a session for userID and sets it on the response
func (p *CookieProvider) Start(w http.ResponseWriter, userID, email string) error {
	token, expiresAt, err := p.codec.Issue(userID, email)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(p.codec.TTL().Seconds()),
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// End clears the session cookie
func (p *CookieProvider) End(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
