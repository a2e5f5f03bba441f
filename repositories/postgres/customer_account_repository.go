package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/KunalBagaria/tokengate/models"
	"github.com/KunalBagaria/tokengate/repositories"
	"github.com/KunalBagaria/tokengate/services"
	"go.uber.org/zap"
)

// CustomerAccountRepository implements the repositories.CustomerAccountRepository interface
type CustomerAccountRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCustomerAccountRepository creates a new customer account repository
func NewCustomerAccountRepository(db *DB, logger *zap.Logger) repositories.CustomerAccountRepository {
	return &CustomerAccountRepository{
		db:     db,
		logger: logger,
	}
}

// GetByUserID retrieves the account linked to a user
func (r *CustomerAccountRepository) GetByUserID(ctx context.Context, userID string) (*models.CustomerAccount, error) {
	query := `
		SELECT user_id, customer_id, COALESCE(email, ''), created_at, updated_at
		FROM customer_accounts
		WHERE user_id = $1
	`

	account := &models.CustomerAccount{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&account.UserID,
		&account.CustomerID,
		&account.Email,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", services.ErrAccountNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get customer account: %w", err)
	}

	return account, nil
}

// Link creates or replaces the customer linked to a user
func (r *CustomerAccountRepository) Link(ctx context.Context, account *models.CustomerAccount) error {
	query := `
		INSERT INTO customer_accounts (user_id, customer_id, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id,
			email = EXCLUDED.email,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		account.UserID,
		account.CustomerID,
		account.Email,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to link customer account: %w", err)
	}

	r.logger.Debug("customer account linked",
		zap.String("user_id", account.UserID),
		zap.String("customer_id", account.CustomerID.String()))
	return nil
}

// Unlink removes a user's customer link
func (r *CustomerAccountRepository) Unlink(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM customer_accounts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to unlink customer account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: user %s", services.ErrAccountNotFound, userID)
	}

	r.logger.Debug("customer account unlinked", zap.String("user_id", userID))
	return nil
}

// LookupCustomerID returns the customer id linked to a user
func (r *CustomerAccountRepository) LookupCustomerID(ctx context.Context, userID string) (string, error) {
	account, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	return account.CustomerID.String(), nil
}
