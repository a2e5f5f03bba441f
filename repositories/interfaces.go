package repositories

import (
	"context"

	"github.com/KunalBagaria/tokengate/models"
)

// CustomerAccountRepository handles the user to registry customer mapping
type CustomerAccountRepository interface {
	// GetByUserID retrieves the account linked to a user
	GetByUserID(ctx context.Context, userID string) (*models.CustomerAccount, error)

	// Link creates or replaces the customer linked to a user
	Link(ctx context.Context, account *models.CustomerAccount) error

	// Unlink removes a user's customer link
	Unlink(ctx context.Context, userID string) error

	// LookupCustomerID returns the customer id linked to a user. It satisfies
	// identity.CustomerLookup for session-backed gating.
	LookupCustomerID(ctx context.Context, userID string) (string, error)
}

// Repositories holds all repository instances
type Repositories struct {
	CustomerAccounts CustomerAccountRepository
}
