package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repository "github.com/shopmesh/storefront/internal/repositories"
)

func setupTxTest(t *testing.T) (sqlmock.Sqlmock, *repository.Repository, repository.CartRepository) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return mock, &repository.Repository{DB: db}, repository.NewCartRepo(db)
}

func TestRepository_WithinTx(t *testing.T) {

	ctx := context.Background()
	userID := uuid.New()

	t.Run("Commits when the callback succeeds", func(t *testing.T) {
		// Arrange: the repo call inside the callback must run on the
		// transaction, not on the pool.
		mock, repos, cartRepo := setupTxTest(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1")).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		// Act
		err := repos.WithinTx(ctx, func(txCtx context.Context) error {
			return cartRepo.ClearCart(txCtx, userID)
		})

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls back when the callback fails", func(t *testing.T) {
		// Arrange
		mock, repos, cartRepo := setupTxTest(t)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1")).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		callbackErr := errors.New("stock conflict")

		// Act
		err := repos.WithinTx(ctx, func(txCtx context.Context) error {
			if err := cartRepo.ClearCart(txCtx, userID); err != nil {
				return err
			}

			return callbackErr
		})

		// Assert
		assert.ErrorIs(t, err, callbackErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Returns the begin error", func(t *testing.T) {
		// Arrange
		mock, repos, _ := setupTxTest(t)

		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		// Act
		err := repos.WithinTx(ctx, func(context.Context) error { return nil })

		// Assert
		assert.Error(t, err)
	})
}
