package registry

import (
	"fmt"

	"github.com/KunalBagaria/tokengate/services"
)

// MatchField names the mint attribute a TokenMatcher compares against.
type MatchField string

const (
	// MatchFieldMintID compares the unique mint identifier ("id")
	MatchFieldMintID MatchField = "id"
	// MatchFieldCollectionID compares the collection a mint belongs to ("collectionId")
	MatchFieldCollectionID MatchField = "collectionId"
)

// TokenMatcher selects the token a customer must hold. Build one with
// MintID or CollectionID; the zero value matches nothing and fails Validate.
type TokenMatcher struct {
	field MatchField
	value string
}

// MintID matches a single mint by its id.
func MintID(id string) TokenMatcher {
	return TokenMatcher{field: MatchFieldMintID, value: id}
}

// CollectionID matches any mint that belongs to the collection.
func CollectionID(id string) TokenMatcher {
	return TokenMatcher{field: MatchFieldCollectionID, value: id}
}

// Field returns the mint attribute compared by the matcher.
func (m TokenMatcher) Field() MatchField {
	return m.field
}

// Value returns the identifier the matcher looks for.
func (m TokenMatcher) Value() string {
	return m.value
}

// Validate checks that exactly one matcher variant is populated.
func (m TokenMatcher) Validate() error {
	switch m.field {
	case MatchFieldMintID, MatchFieldCollectionID:
	default:
		return services.ErrInvalidTokenTarget
	}
	if m.value == "" {
		return services.NewDomainError(services.ErrorTypeValidation, "token matcher value is empty", nil).
			WithDetail("field", string(m.field))
	}
	return nil
}

// Matches reports whether the mint satisfies the matcher. Comparison is exact
// and scoped to the matcher's field.
func (m TokenMatcher) Matches(mint Mint) bool {
	switch m.field {
	case MatchFieldMintID:
		return mint.ID != "" && mint.ID == m.value
	case MatchFieldCollectionID:
		return mint.CollectionID != "" && mint.CollectionID == m.value
	default:
		return false
	}
}

// String implements fmt.Stringer for logging.
func (m TokenMatcher) String() string {
	if m.field == "" {
		return "<none>"
	}
	return fmt.Sprintf("%s=%s", m.field, m.value)
}

// Mint is a token held by a customer as reported by the registry. Only the
// field selected by the query's matcher is populated.
type Mint struct {
	ID           string `json:"id,omitempty"`
	CollectionID string `json:"collectionId,omitempty"`
}

// OwnershipQuery asks the registry whether a customer of a project holds the target token.
type OwnershipQuery struct {
	APIKey     string `validate:"required"`
	ProjectID  string `validate:"required"`
	CustomerID string `validate:"required"`
	Target     TokenMatcher
	// APIURL overrides the client's registry endpoint when set
	APIURL string `validate:"omitempty,url"`
}

// OwnershipResult is either Owned(bool) or VerificationFailure(cause), never both.
type OwnershipResult struct {
	owned bool
	cause error
}

// Owned reports a successful registry lookup.
func Owned(owned bool) OwnershipResult {
	return OwnershipResult{owned: owned}
}

// VerificationFailure reports a registry lookup that could not complete.
func VerificationFailure(cause error) OwnershipResult {
	if cause == nil {
		cause = services.ErrVerificationFailed
	}
	return OwnershipResult{cause: cause}
}

// Failed reports whether the lookup failed.
func (r OwnershipResult) Failed() bool {
	return r.cause != nil
}

// IsOwned reports whether the customer holds the token. Always false on failure.
func (r OwnershipResult) IsOwned() bool {
	return r.cause == nil && r.owned
}

// Cause returns the failure cause, or nil for a successful lookup.
func (r OwnershipResult) Cause() error {
	return r.cause
}

// graphqlRequest is the POST body sent to the registry
type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphqlResponse mirrors {data:{project:{customer:{mints:[...]|null}}}, errors:[...]}
type graphqlResponse struct {
	Data   *responseData  `json:"data"`
	Errors []graphqlError `json:"errors,omitempty"`
}

type responseData struct {
	Project *struct {
		Customer *struct {
			Mints []Mint `json:"mints"`
		} `json:"customer"`
	} `json:"project"`
}

type graphqlError struct {
	Message string `json:"message"`
}
