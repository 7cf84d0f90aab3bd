package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/internal/utils"
)

type OrderLineRepository interface {
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	GetLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error)
	DeleteLinesByOrder(ctx context.Context, orderID uuid.UUID) error
}

type orderLineRepository struct {
	DB *sql.DB
}

func NewOrderLineRepo(db *sql.DB) OrderLineRepository {
	return &orderLineRepository{DB: db}
}

func (r *orderLineRepository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO order_lines (order_id, product_id, product_name, unit_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	for i := range lines {
		line := &lines[i]

		err := queryer(dbCtx, r.DB).QueryRowContext(dbCtx, query, line.OrderID, line.ProductID, line.ProductName, line.UnitPrice, line.Quantity, line.Subtotal).Scan(&line.ID, &line.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return nil
}

func (r *orderLineRepository) GetLinesByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderLine, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, product_id, product_name, unit_price, quantity, subtotal, created_at
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := queryer(dbCtx, r.DB).QueryContext(dbCtx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order lines: %w", err)
	}

	defer rows.Close()

	var lines []models.OrderLine

	for rows.Next() {
		line := models.OrderLine{OrderID: orderID}

		err := rows.Scan(&line.ID, &line.ProductID, &line.ProductName, &line.UnitPrice, &line.Quantity, &line.Subtotal, &line.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *orderLineRepository) DeleteLinesByOrder(ctx context.Context, orderID uuid.UUID) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM order_lines WHERE order_id = $1`

	if _, err := queryer(dbCtx, r.DB).ExecContext(dbCtx, query, orderID); err != nil {
		return fmt.Errorf("failed to delete the order lines: %w", err)
	}

	return nil
}
