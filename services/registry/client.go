package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KunalBagaria/tokengate/services"
	"github.com/KunalBagaria/tokengate/utils"
	"go.uber.org/zap"
)

const (
	// DefaultURL is the Holaplex GraphQL endpoint
	DefaultURL = "https://api.holaplex.com/graphql"

	// DefaultTimeout bounds a single verification call
	DefaultTimeout = 5 * time.Second

	// maxResponseBytes caps how much of a registry response is read
	maxResponseBytes = 4 << 20
)

// customerMintsQuery selects the mints of one customer; %s is the matcher field.
const customerMintsQuery = `query CustomerMints($project: UUID!, $customer: UUID!) {
  project(id: $project) {
    customer(id: $customer) {
      mints {
        %s
      }
    }
  }
}`

// Config holds configuration for the registry Client
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client verifies token ownership against the registry's GraphQL API.
// It holds no per-request state and is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new registry client
func NewClient(config Config, logger *zap.Logger) *Client {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// WithHTTPClient replaces the underlying HTTP client (transport tuning, tests)
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// Timeout returns the bound applied to each verification call
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// Verify fetches the customer's mints and tests them against query.Target.
// The call is made once, without retries, and is bounded by the client timeout.
func (c *Client) Verify(ctx context.Context, query OwnershipQuery) OwnershipResult {
	if err := utils.ValidateStruct(query); err != nil {
		return VerificationFailure(services.WrapVerification("invalid ownership query", err))
	}
	if err := query.Target.Validate(); err != nil {
		return VerificationFailure(services.WrapVerification("invalid ownership query", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	mints, err := c.fetchMints(ctx, query)
	if err != nil {
		return VerificationFailure(err)
	}

	for _, mint := range mints {
		if query.Target.Matches(mint) {
			return Owned(true)
		}
	}
	return Owned(false)
}

// fetchMints performs the registry round trip. A nil slice with a nil error
// means the customer has no mints.
func (c *Client) fetchMints(ctx context.Context, query OwnershipQuery) ([]Mint, error) {
	endpoint := query.APIURL
	if endpoint == "" {
		endpoint = c.config.URL
	}

	reqBody, err := json.Marshal(graphqlRequest{
		Query: fmt.Sprintf(customerMintsQuery, query.Target.Field()),
		Variables: map[string]interface{}{
			"project":  query.ProjectID,
			"customer": query.CustomerID,
		},
	})
	if err != nil {
		return nil, services.WrapVerification("failed to marshal registry query", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, services.WrapVerification("failed to create registry request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	// Holaplex expects the raw key, not a bearer token
	httpReq.Header.Set("Authorization", query.APIKey)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, services.WrapVerification("registry request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, services.WrapVerification("failed to read registry response", err)
	}

	c.logger.Debug("registry responded",
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("target", query.Target.String()))

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, services.NewDomainError(services.ErrorTypeVerification, "unexpected registry status", nil).
			WithDetail("status", httpResp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, services.WrapVerification("failed to decode registry response", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, services.NewDomainError(services.ErrorTypeVerification, "registry returned errors", nil).
			WithDetail("message", gqlResp.Errors[0].Message)
	}
	if gqlResp.Data == nil || gqlResp.Data.Project == nil {
		return nil, services.NewDomainError(services.ErrorTypeVerification, "registry response has no project", nil)
	}
	if gqlResp.Data.Project.Customer == nil {
		return nil, services.NewDomainError(services.ErrorTypeVerification, "registry response has no customer", nil)
	}

	return gqlResp.Data.Project.Customer.Mints, nil
}
