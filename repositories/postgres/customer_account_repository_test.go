package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/KunalBagaria/tokengate/models"
	"github.com/KunalBagaria/tokengate/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockRepo(t *testing.T) (*CustomerAccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewCustomerAccountRepository(Wrap(sqlDB, zap.NewNop()), zap.NewNop())
	return repo.(*CustomerAccountRepository), mock
}

var accountColumns = []string{"user_id", "customer_id", "email", "created_at", "updated_at"}

func TestCustomerAccountRepository_GetByUserID(t *testing.T) {
	ctx := context.Background()
	selectQuery := regexp.QuoteMeta("FROM customer_accounts")

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		customerID := uuid.New()
		now := time.Now().UTC()

		mock.ExpectQuery(selectQuery).
			WithArgs("google-sub-1").
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow("google-sub-1", customerID.String(), "h@example.com", now, now))

		account, err := repo.GetByUserID(ctx, "google-sub-1")
		require.NoError(t, err)
		assert.Equal(t, customerID, account.CustomerID)
		assert.Equal(t, "h@example.com", account.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(selectQuery).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUserID(ctx, "nobody")
		require.Error(t, err)
		assert.True(t, services.IsNotFoundError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(selectQuery).WithArgs("u").WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByUserID(ctx, "u")
		require.Error(t, err)
		assert.False(t, services.IsNotFoundError(err))
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestCustomerAccountRepository_LookupCustomerID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns linked customer", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		customerID := uuid.New()
		now := time.Now().UTC()

		mock.ExpectQuery("FROM customer_accounts").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(accountColumns).AddRow("u1", customerID.String(), "", now, now))

		id, err := repo.LookupCustomerID(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, customerID.String(), id)
	})

	t.Run("unlinked user", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("FROM customer_accounts").WithArgs("u2").WillReturnError(sql.ErrNoRows)

		id, err := repo.LookupCustomerID(ctx, "u2")
		assert.Error(t, err)
		assert.Empty(t, id)
	})
}

func TestCustomerAccountRepository_Link(t *testing.T) {
	ctx := context.Background()
	insertQuery := regexp.QuoteMeta("INSERT INTO customer_accounts")

	t.Run("upserts account", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		account := models.NewCustomerAccount("u1", uuid.New(), "h@example.com")

		mock.ExpectExec(insertQuery).
			WithArgs(account.UserID, account.CustomerID, account.Email, account.CreatedAt, account.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Link(ctx, account))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(insertQuery).WillReturnError(errors.New("constraint"))

		err := repo.Link(ctx, models.NewCustomerAccount("u1", uuid.New(), ""))
		assert.Error(t, err)
	})
}

func TestCustomerAccountRepository_Unlink(t *testing.T) {
	ctx := context.Background()
	deleteQuery := regexp.QuoteMeta("DELETE FROM customer_accounts")

	t.Run("removes link", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteQuery).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Unlink(ctx, "u1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to remove", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteQuery).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Unlink(ctx, "u1")
		assert.True(t, services.IsNotFoundError(err))
	})
}
