package middleware

import (
	"net/http"

	"github.com/KunalBagaria/tokengate/services/gate"
	"github.com/KunalBagaria/tokengate/services/identity"
	"github.com/KunalBagaria/tokengate/utils"
	"go.uber.org/zap"
)

// TokenGate runs a protected handler only for callers that own the
// configured token. It holds no per-request state.
type TokenGate struct {
	resolver identity.Resolver
	engine   *gate.Engine
	logger   *zap.Logger
}

// NewTokenGate creates a gate from an identity strategy and a decision engine
func NewTokenGate(resolver identity.Resolver, engine *gate.Engine, logger *zap.Logger) *TokenGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenGate{
		resolver: resolver,
		engine:   engine,
		logger:   logger,
	}
}

// Wrap returns next guarded by the gate. The decision is made before
// anything is written. On deny the outcome is written and next is never
// called; on allow next is called once with the untouched request.
func (g *TokenGate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.resolver.Resolve(r)
		outcome := g.engine.Decide(r.Context(), id, err)

		if !outcome.Allow {
			if werr := utils.WriteErrorMessage(w, outcome.Status, outcome.Message); werr != nil {
				g.logger.Error("failed to write gate response",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.Error(werr))
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WrapFunc is Wrap for a handler function
func (g *TokenGate) WrapFunc(next http.HandlerFunc) http.Handler {
	return g.Wrap(next)
}

// Middleware returns the gate in chi's middleware form
func (g *TokenGate) Middleware() func(http.Handler) http.Handler {
	return g.Wrap
}

// WithTokenGating guards next with the header identity strategy and a
// registry-backed engine built from cfg
func WithTokenGating(next http.Handler, cfg gate.Config, logger *zap.Logger) (http.Handler, error) {
	engine, err := gate.NewRegistryEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewTokenGate(identity.NewHeaderResolver(""), engine, logger).Wrap(next), nil
}
