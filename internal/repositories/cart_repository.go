package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/internal/utils"
)

type CartRepository interface {
	GetItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	GetQuantity(ctx context.Context, userID uuid.UUID, productID int64) (int, error)
	AddQuantity(ctx context.Context, userID uuid.UUID, productID int64, quantity int) error
	SetQuantity(ctx context.Context, userID uuid.UUID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID uuid.UUID, productID int64) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT user_id, product_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := queryer(dbCtx, r.DB).QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying database: %w", err)
	}

	defer rows.Close()

	var items []models.CartItem

	for rows.Next() {
		var item models.CartItem

		if err := rows.Scan(&item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// GetQuantity reports 0 for an absent line, not an error.
func (r *cartRepository) GetQuantity(ctx context.Context, userID uuid.UUID, productID int64) (int, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT quantity
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`

	var quantity int

	err := queryer(dbCtx, r.DB).QueryRowContext(dbCtx, query, userID, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("querying database: %w", err)
	}

	return quantity, nil
}

// AddQuantity is additive: two adds of 1 leave the line at 2.
func (r *cartRepository) AddQuantity(ctx context.Context, userID uuid.UUID, productID int64, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	`

	if _, err := queryer(dbCtx, r.DB).ExecContext(dbCtx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID uuid.UUID, productID int64, quantity int) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
	`

	if _, err := queryer(dbCtx, r.DB).ExecContext(dbCtx, query, userID, productID, quantity); err != nil {
		return fmt.Errorf("failed to set cart quantity: %w", err)
	}

	return nil
}

// RemoveItem is a no-op when the line is absent.
func (r *cartRepository) RemoveItem(ctx context.Context, userID uuid.UUID, productID int64) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	if _, err := queryer(dbCtx, r.DB).ExecContext(dbCtx, query, userID, productID); err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	return nil
}

func (r *cartRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := queryer(dbCtx, r.DB).ExecContext(dbCtx, query, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
