package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	appErrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
)

type OrderService interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req *models.UpdateOrderRequest) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	lineRepo  repository.OrderLineRepository
	tx        repository.TxManager
}

func NewOrderService(orderRepo repository.OrderRepository, lineRepo repository.OrderLineRepository, tx repository.TxManager) OrderService {
	return &orderService{orderRepo: orderRepo, lineRepo: lineRepo, tx: tx}
}

func (s *orderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, appErrors.NotFoundError("Order not found")
		}

		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	lines, err := s.lineRepo.GetLinesByOrder(ctx, id)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch order lines").WithError(err)
	}

	order.Lines = lines

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 100 {
		size = 10
	}

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

// UpdateOrder is the post-checkout edit surface. Orders are otherwise
// immutable; only the invoice number, the status and the total may change,
// and the handler scopes the edit to the order's owner. An edited total
// rederives subtotal and tax through the inverse calculation so the stored
// amounts always reconcile.
func (s *orderService) UpdateOrder(ctx context.Context, id uuid.UUID, req *models.UpdateOrderRequest) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, appErrors.NotFoundError("Order not found")
		}

		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if req.InvoiceNumber != nil {
		order.InvoiceNumber = *req.InvoiceNumber
	}

	if req.Status != nil {
		order.Status = *req.Status
	}

	if req.Total != nil {
		order.Total = Round2(*req.Total)
		order.Subtotal, order.TaxAmount = InverseTotals(order.Total)
	}

	if err := s.orderRepo.UpdateOrder(ctx, order); err != nil {
		return nil, appErrors.DatabaseError("Failed to update order").WithError(err)
	}

	return order, nil
}

// DeleteOrder removes the order and its lines. Lines go first, in the same
// transaction, because nothing at the database level cascades.
func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {

	if _, err := s.orderRepo.GetOrderByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return appErrors.NotFoundError("Order not found")
		}

		return appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {

		if err := s.lineRepo.DeleteLinesByOrder(txCtx, id); err != nil {
			return err
		}

		return s.orderRepo.DeleteOrder(txCtx, id)
	})
	if err != nil {
		return appErrors.DatabaseError("Failed to delete order").WithError(err)
	}

	return nil
}
