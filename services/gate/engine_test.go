package gate

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/KunalBagaria/tokengate/services"
	"github.com/KunalBagaria/tokengate/services/identity"
	"github.com/KunalBagaria/tokengate/services/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockVerifier is a mock implementation of Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, query registry.OwnershipQuery) registry.OwnershipResult {
	args := m.Called(ctx, query)
	return args.Get(0).(registry.OwnershipResult)
}

func testConfig() Config {
	return Config{
		APIKey:    "key",
		ProjectID: "project-1",
		Target:    registry.MintID("m1"),
	}
}

func newTestEngine(t *testing.T, v Verifier) *Engine {
	t.Helper()
	engine, err := NewEngine(testConfig(), v, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"collection target", func(c *Config) { c.Target = registry.CollectionID("col") }, false},
		{"registry url override", func(c *Config) { c.RegistryURL = "http://localhost:8081/graphql" }, false},
		{"missing api key", func(c *Config) { c.APIKey = "" }, true},
		{"missing project", func(c *Config) { c.ProjectID = "" }, true},
		{"missing target", func(c *Config) { c.Target = registry.TokenMatcher{} }, true},
		{"bad registry url", func(c *Config) { c.RegistryURL = "not a url" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, services.IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("requires verifier", func(t *testing.T) {
		_, err := NewEngine(testConfig(), nil, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.APIKey = ""
		_, err := NewEngine(cfg, new(MockVerifier), zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("registry engine", func(t *testing.T) {
		engine, err := NewRegistryEngine(testConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, registry.MintID("m1"), engine.Target())
	})
}

func TestEngine_Decide_IdentityFailures(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "missing header",
			err:         &identity.Error{Kind: identity.KindMissingHeader, Message: "Missing Customer ID in Request"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Missing Customer ID in Request",
		},
		{
			name:        "no session",
			err:         &identity.Error{Kind: identity.KindNoSession, Message: "Not logged in"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Not logged in",
		},
		{
			name:        "no customer mapping",
			err:         &identity.Error{Kind: identity.KindNoCustomerMapping, Message: "No customer linked to this account"},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "No customer linked to this account",
		},
		{
			name:        "unrecognised error",
			err:         errors.New("boom"),
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockVerifier)
			engine := newTestEngine(t, verifier)

			outcome := engine.Decide(context.Background(), identity.Identity{}, tt.err)

			assert.False(t, outcome.Allow)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.Equal(t, tt.wantMessage, outcome.Message)
			assert.ErrorIs(t, outcome.Cause, tt.err)
			verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
		})
	}
}

func TestEngine_Decide_Verification(t *testing.T) {
	id := identity.Identity{CustomerID: "c1", Source: identity.SourceHeader}
	wantQuery := registry.OwnershipQuery{
		APIKey:     "key",
		ProjectID:  "project-1",
		CustomerID: "c1",
		Target:     registry.MintID("m1"),
	}

	tests := []struct {
		name        string
		result      registry.OwnershipResult
		wantAllow   bool
		wantStatus  int
		wantMessage string
	}{
		{"owned", registry.Owned(true), true, http.StatusOK, ""},
		{"not owned", registry.Owned(false), false, http.StatusUnauthorized, MessageNotOwned},
		{"verification failure", registry.VerificationFailure(errors.New("connection refused")), false, http.StatusInternalServerError, MessageVerificationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockVerifier)
			verifier.On("Verify", mock.Anything, wantQuery).Return(tt.result).Once()
			engine := newTestEngine(t, verifier)

			outcome := engine.Decide(context.Background(), id, nil)

			assert.Equal(t, tt.wantAllow, outcome.Allow)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.Equal(t, tt.wantMessage, outcome.Message)
			verifier.AssertExpectations(t)
		})
	}
}

func TestEngine_Decide_OutcomeCauses(t *testing.T) {
	id := identity.Identity{CustomerID: "c1", Source: identity.SourceSession}

	t.Run("not owned is an authorization error", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, mock.Anything).Return(registry.Owned(false))

		outcome := newTestEngine(t, verifier).Decide(context.Background(), id, nil)
		assert.True(t, services.IsAuthorizationError(outcome.Cause))
	})

	t.Run("verification cause is kept but not exposed", func(t *testing.T) {
		cause := errors.New("dial tcp: secret-host:443 refused")
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, mock.Anything).Return(registry.VerificationFailure(cause))

		outcome := newTestEngine(t, verifier).Decide(context.Background(), id, nil)
		assert.Equal(t, cause, outcome.Cause)
		assert.NotContains(t, outcome.Message, "secret-host")
	})
}

func TestEngine_Decide_PassesRegistryOverride(t *testing.T) {
	cfg := testConfig()
	cfg.RegistryURL = "http://registry.local/graphql"

	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, mock.MatchedBy(func(q registry.OwnershipQuery) bool {
		return q.APIURL == "http://registry.local/graphql"
	})).Return(registry.Owned(true))

	engine, err := NewEngine(cfg, verifier, zap.NewNop())
	require.NoError(t, err)

	outcome := engine.Decide(context.Background(), identity.Identity{CustomerID: "c1"}, nil)
	assert.True(t, outcome.Allow)
	verifier.AssertExpectations(t)
}

func TestEngine_Decide_Idempotent(t *testing.T) {
	verifier := new(MockVerifier)
	verifier.On("Verify", mock.Anything, mock.Anything).Return(registry.Owned(false))
	engine := newTestEngine(t, verifier)
	id := identity.Identity{CustomerID: "c1", Source: identity.SourceHeader}

	first := engine.Decide(context.Background(), id, nil)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, engine.Decide(context.Background(), id, nil))
	}
	verifier.AssertNumberOfCalls(t, "Verify", 6)
}
