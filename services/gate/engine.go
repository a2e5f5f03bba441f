package gate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/KunalBagaria/tokengate/internal/observability"
	"github.com/KunalBagaria/tokengate/services"
	"github.com/KunalBagaria/tokengate/services/identity"
	"github.com/KunalBagaria/tokengate/services/registry"
	"github.com/KunalBagaria/tokengate/utils"
	"go.uber.org/zap"
)

const (
	MessageNotOwned           = "Customer does not own the token"
	MessageVerificationFailed = "Error while checking token"
)

// Config is the per-gate configuration supplied by the embedding application
type Config struct {
	APIKey      string `validate:"required"`
	ProjectID   string `validate:"required"`
	Target      registry.TokenMatcher
	RegistryURL string        `validate:"omitempty,url"`
	Timeout     time.Duration `validate:"gte=0"`
}

// Validate checks the configuration before any request is served
func (c Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return services.WrapError(services.ErrorTypeValidation, "invalid gate configuration", err)
	}
	if err := c.Target.Validate(); err != nil {
		return err
	}
	return nil
}

// Outcome is the terminal result of one gate decision. Exactly one response
// action follows it: the protected handler when Allow is set, otherwise a
// response with Status and Message.
type Outcome struct {
	Allow   bool
	Status  int
	Message string
	// Cause is for logging; it is never written to the response
	Cause error
}

func allow() Outcome {
	return Outcome{Allow: true, Status: http.StatusOK}
}

func deny(status int, message string, cause error) Outcome {
	return Outcome{Status: status, Message: message, Cause: cause}
}

// Verifier answers the ownership question for a query
type Verifier interface {
	Verify(ctx context.Context, query registry.OwnershipQuery) registry.OwnershipResult
}

// Engine turns a resolved identity into an allow/deny Outcome
type Engine struct {
	config   Config
	verifier Verifier
	logger   *zap.Logger
}

// NewEngine validates config and creates an Engine
func NewEngine(config Config, verifier Verifier, logger *zap.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if verifier == nil {
		return nil, errors.New("gate: verifier is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		config:   config,
		verifier: verifier,
		logger:   logger,
	}, nil
}

// NewRegistryEngine creates an Engine backed by a registry Client built from config
func NewRegistryEngine(config Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := registry.NewClient(registry.Config{
		URL:     config.RegistryURL,
		Timeout: config.Timeout,
	}, logger.Named("registry"))
	return NewEngine(config, client, logger)
}

// Target returns the token the gate requires
func (e *Engine) Target() registry.TokenMatcher {
	return e.config.Target
}

// Decide applies the decision rules in order and returns at the first one
// that matches. idErr is the identity resolution error, if any; when it is
// set the registry is not consulted.
func (e *Engine) Decide(ctx context.Context, id identity.Identity, idErr error) Outcome {
	fields := append(observability.RequestFields(ctx), zap.String("target", e.config.Target.String()))

	if idErr != nil {
		outcome := identityOutcome(idErr)
		e.logger.Warn("token gate denied: identity unresolved",
			append(fields, zap.Int("status", outcome.Status), zap.Error(idErr))...)
		return outcome
	}

	fields = append(fields, zap.String("customer_id", id.CustomerID), zap.String("source", string(id.Source)))

	result := e.verifier.Verify(ctx, registry.OwnershipQuery{
		APIKey:     e.config.APIKey,
		ProjectID:  e.config.ProjectID,
		CustomerID: id.CustomerID,
		Target:     e.config.Target,
		APIURL:     e.config.RegistryURL,
	})

	if result.Failed() {
		e.logger.Error("token gate verification failed", append(fields, zap.Error(result.Cause()))...)
		return deny(http.StatusInternalServerError, MessageVerificationFailed, result.Cause())
	}

	if !result.IsOwned() {
		e.logger.Warn("token gate denied: token not owned", fields...)
		return deny(http.StatusUnauthorized, MessageNotOwned, services.ErrTokenNotOwned)
	}

	e.logger.Debug("token gate allowed", fields...)
	return allow()
}

// identityOutcome maps a resolver error to its deny outcome. Errors that are
// not *identity.Error are treated as an unauthenticated caller.
func identityOutcome(err error) Outcome {
	var idErr *identity.Error
	if errors.As(err, &idErr) {
		return deny(idErr.Status(), idErr.Message, err)
	}
	return deny(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized),
		fmt.Errorf("unrecognised identity error: %w", err))
}
