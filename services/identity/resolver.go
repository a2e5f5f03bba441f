package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/KunalBagaria/tokengate/services"
)

// DefaultHeader is the request header carrying the caller's customer id.
const DefaultHeader = "customer-id"

// Source records which strategy produced an Identity
type Source string

const (
	SourceHeader  Source = "header"
	SourceSession Source = "session"
)

// Identity is the resolved caller for a single request
type Identity struct {
	CustomerID string
	Source     Source
}

// Kind classifies why identity resolution failed
type Kind int

const (
	KindMissingHeader Kind = iota + 1
	KindNoSession
	KindNoCustomerMapping
)

// Error is returned by resolvers. Message is safe to show to the caller;
// Cause is kept for logging only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the domain error for the kind, so services.Is* helpers
// apply, followed by the cause when there is one
func (e *Error) Unwrap() []error {
	var domain error
	switch e.Kind {
	case KindMissingHeader:
		domain = services.ErrMissingCustomerID
	case KindNoSession:
		domain = services.ErrNoSession
	default:
		domain = services.ErrNoCustomerMapping
	}
	if e.Cause == nil {
		return []error{domain}
	}
	return []error{domain, e.Cause}
}

// Status is the HTTP status a gate responds with for this failure
func (e *Error) Status() int {
	if e.Kind == KindMissingHeader {
		return http.StatusBadRequest
	}
	return http.StatusUnauthorized
}

const (
	msgMissingHeader     = "Missing Customer ID in Request"
	msgNoSession         = "Not logged in"
	msgNoCustomerMapping = "No customer linked to this account"
)

// Resolver determines the caller's customer id for a request
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

type passThroughKey struct{}

// WithCustomerID stores a customer id forwarded by an upstream caller. The
// header strategy uses it in preference to inspecting request headers.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	return context.WithValue(ctx, passThroughKey{}, customerID)
}

// CustomerIDFromContext returns a forwarded customer id, if any
func CustomerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(passThroughKey{}).(string)
	return id, ok && id != ""
}

// HeaderResolver reads the customer id from a request header
type HeaderResolver struct {
	header string
}

// NewHeaderResolver creates a resolver for the given header name; an empty
// name selects DefaultHeader. Lookup is case-insensitive.
func NewHeaderResolver(header string) *HeaderResolver {
	if header == "" {
		header = DefaultHeader
	}
	return &HeaderResolver{header: header}
}

// Resolve implements Resolver
func (h *HeaderResolver) Resolve(r *http.Request) (Identity, error) {
	if id, ok := CustomerIDFromContext(r.Context()); ok {
		return Identity{CustomerID: id, Source: SourceHeader}, nil
	}

	id := strings.TrimSpace(headerValue(r.Header, h.header))
	if id == "" {
		return Identity{}, &Error{Kind: KindMissingHeader, Message: msgMissingHeader}
	}
	return Identity{CustomerID: id, Source: SourceHeader}, nil
}

// headerValue also finds keys set directly on the map without canonicalization
func headerValue(h http.Header, name string) string {
	if v := h.Get(name); v != "" {
		return v
	}
	for k, vs := range h {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// SessionProvider is the authentication collaborator: given a request it
// returns the authenticated application user id, or an error when there is none.
type SessionProvider interface {
	UserID(r *http.Request) (string, error)
}

// CustomerLookup maps an application user id to a registry customer id
type CustomerLookup interface {
	LookupCustomerID(ctx context.Context, userID string) (string, error)
}

// CustomerLookupFunc adapts a function to CustomerLookup
type CustomerLookupFunc func(ctx context.Context, userID string) (string, error)

// LookupCustomerID implements CustomerLookup
func (f CustomerLookupFunc) LookupCustomerID(ctx context.Context, userID string) (string, error) {
	return f(ctx, userID)
}

// SessionResolver derives the customer id from the authenticated session
type SessionResolver struct {
	sessions SessionProvider
	lookup   CustomerLookup
}

// NewSessionResolver creates a session-backed resolver
func NewSessionResolver(sessions SessionProvider, lookup CustomerLookup) *SessionResolver {
	return &SessionResolver{
		sessions: sessions,
		lookup:   lookup,
	}
}

// Resolve implements Resolver
func (s *SessionResolver) Resolve(r *http.Request) (Identity, error) {
	if s.sessions == nil {
		return Identity{}, &Error{Kind: KindNoSession, Message: msgNoSession}
	}
	userID, err := s.sessions.UserID(r)
	if err != nil || userID == "" {
		return Identity{}, &Error{Kind: KindNoSession, Message: msgNoSession, Cause: err}
	}

	if s.lookup == nil {
		return Identity{}, &Error{Kind: KindNoCustomerMapping, Message: msgNoCustomerMapping}
	}
	customerID, err := s.lookup.LookupCustomerID(r.Context(), userID)
	if err != nil || customerID == "" {
		return Identity{}, &Error{Kind: KindNoCustomerMapping, Message: msgNoCustomerMapping, Cause: err}
	}

	return Identity{CustomerID: customerID, Source: SourceSession}, nil
}
