package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repository "github.com/shopmesh/storefront/internal/repositories"
)

func setupCartRepoTest(t *testing.T) (sqlmock.Sqlmock, repository.CartRepository) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return mock, repository.NewCartRepo(db)
}

func TestCartRepository_GetItems(t *testing.T) {

	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	t.Run("Returns the user's lines", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		rows := sqlmock.NewRows([]string{"user_id", "product_id", "quantity", "created_at", "updated_at"}).
			AddRow(userID, int64(42), 2, now, now).
			AddRow(userID, int64(7), 1, now, now)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, product_id, quantity, created_at, updated_at FROM cart_items WHERE user_id = $1")).
			WithArgs(userID).
			WillReturnRows(rows)

		// Act
		items, err := repo.GetItems(ctx, userID)

		// Assert
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, int64(42), items[0].ProductID)
		assert.Equal(t, 2, items[0].Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty cart yields no lines", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, product_id, quantity, created_at, updated_at FROM cart_items")).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "product_id", "quantity", "created_at", "updated_at"}))

		// Act
		items, err := repo.GetItems(ctx, userID)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestCartRepository_GetQuantity(t *testing.T) {

	ctx := context.Background()
	userID := uuid.New()

	t.Run("Reads the stored quantity", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2")).
			WithArgs(userID, int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(3))

		// Act
		quantity, err := repo.GetQuantity(ctx, userID, 42)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 3, quantity)
	})

	t.Run("Absent line reads as zero", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT quantity FROM cart_items")).
			WithArgs(userID, int64(42)).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

		// Act
		quantity, err := repo.GetQuantity(ctx, userID, 42)

		// Assert
		require.NoError(t, err)
		assert.Zero(t, quantity)
	})
}

func TestCartRepository_AddQuantity(t *testing.T) {

	ctx := context.Background()
	userID := uuid.New()

	t.Run("Upserts additively", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectExec(regexp.QuoteMeta("DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity")).
			WithArgs(userID, int64(42), 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.AddQuantity(ctx, userID, 42, 2)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Surfaces database failures", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_items")).
			WithArgs(userID, int64(42), 2).
			WillReturnError(errors.New("connection reset"))

		// Act
		err := repo.AddQuantity(ctx, userID, 42, 2)

		// Assert
		assert.Error(t, err)
	})
}

func TestCartRepository_SetQuantity(t *testing.T) {

	ctx := context.Background()
	userID := uuid.New()

	t.Run("Upserts as an overwrite", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectExec(regexp.QuoteMeta("DO UPDATE SET quantity = EXCLUDED.quantity")).
			WithArgs(userID, int64(42), 5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		// Act
		err := repo.SetQuantity(ctx, userID, 42, 5)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCartRepository_RemoveItem(t *testing.T) {

	ctx := context.Background()
	userID := uuid.New()

	t.Run("Removing an absent line still succeeds", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2")).
			WithArgs(userID, int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Act
		err := repo.RemoveItem(ctx, userID, 42)

		// Assert
		assert.NoError(t, err)
	})
}

func TestCartRepository_ClearCart(t *testing.T) {

	ctx := context.Background()
	userID := uuid.New()

	t.Run("Deletes every line for the user", func(t *testing.T) {
		// Arrange
		mock, repo := setupCartRepoTest(t)

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE user_id = $1")).
			WithArgs(userID).
			WillReturnResult(sqlmock.NewResult(0, 3))

		// Act
		err := repo.ClearCart(ctx, userID)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
