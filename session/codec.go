package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the session token is malformed or forged
	ErrInvalidToken = errors.New("invalid session token")

	// ErrTokenExpired is returned when the session token has expired
	ErrTokenExpired = errors.New("session token expired")

	// ErrMissingSubject is returned when the token carries no user id
	ErrMissingSubject = errors.New("session token has no subject")
)

const (
	// DefaultTTL is the lifetime of an issued session
	DefaultTTL = 24 * time.Hour

	// DefaultIssuer is written to and required in the iss claim
	DefaultIssuer = "tokengate"

	minSecretLength = 32
)

// Claims are the claims carried by a session token. The subject is the
// application user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// UserID returns the user id the session belongs to
func (c *Claims) UserID() string {
	return c.Subject
}

// Config holds configuration for Codec
type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// Codec issues and verifies HS256-signed session tokens
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewCodec creates a session codec. The secret must be at least 32 bytes.
func NewCodec(config Config) (*Codec, error) {
	if len(config.Secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.Issuer == "" {
		config.Issuer = DefaultIssuer
	}

	return &Codec{
		secret: []byte(config.Secret),
		ttl:    config.TTL,
		issuer: config.Issuer,
		now:    time.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a session token for userID and returns it with its expiry
func (c *Codec) Issue(userID, email string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrMissingSubject
	}

	now := c.now()
	expiresAt := now.Add(c.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse verifies a session token and returns its claims
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return claims, nil
}
