package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopmesh/storefront/internal/cache"
	appErrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/events"
	"github.com/shopmesh/storefront/internal/metrics"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
	"github.com/shopmesh/storefront/pkg/sendgrid"
)

type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID) (*models.OrderSummary, error)
}

type checkoutService struct {
	tx          repository.TxManager
	orderRepo   repository.OrderRepository
	lineRepo    repository.OrderLineRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	cache       cache.Cache
	publisher   events.Publisher
	email       sendgrid.EmailService
}

func NewCheckoutService(
	tx repository.TxManager,
	orderRepo repository.OrderRepository,
	lineRepo repository.OrderLineRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	productCache cache.Cache,
	publisher events.Publisher,
	email sendgrid.EmailService,
) CheckoutService {
	return &checkoutService{
		tx:          tx,
		orderRepo:   orderRepo,
		lineRepo:    lineRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		cache:       productCache,
		publisher:   publisher,
		email:       email,
	}
}

// Checkout turns the user's cart into an immutable order. The sequence is:
// load the cart, join every line against the live catalog for current name
// and price, compute the totals, then create the order header, snapshot the
// lines, decrement stock and clear the cart inside one transaction. The
// stock decrement is conditional, so two checkouts racing for the last unit
// serialize at the database: one commits, the other rolls back with its
// cart intact and a stock-conflict notice.
func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID) (*models.OrderSummary, error) {

	summary, err := s.checkout(ctx, userID)

	switch {
	case err == nil:
		metrics.CheckoutsTotal.WithLabelValues("completed").Inc()
	case isCheckoutCode(err, appErrors.ErrCodeEmptyCart):
		metrics.CheckoutsTotal.WithLabelValues("empty_cart").Inc()
	case isCheckoutCode(err, appErrors.ErrCodeInsufficientStock):
		metrics.CheckoutsTotal.WithLabelValues("stock_conflict").Inc()
		metrics.StockConflictsTotal.Inc()
	default:
		metrics.CheckoutsTotal.WithLabelValues("error").Inc()
	}

	return summary, err
}

func (s *checkoutService) checkout(ctx context.Context, userID uuid.UUID) (*models.OrderSummary, error) {

	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if len(items) == 0 {
		return nil, appErrors.EmptyCartError()
	}

	orderID := uuid.New()

	// Cart prices are never trusted; every line is joined against the
	// catalog as of this instant and those values become the snapshot.
	lines := make([]models.OrderLine, 0, len(items))
	productNames := make(map[int64]string, len(items))

	for _, item := range items {

		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.NotFoundError("Product not found: " + strconv.FormatInt(item.ProductID, 10))
			}

			return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
		}

		productNames[product.ID] = product.Name

		lines = append(lines, models.OrderLine{
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    item.Quantity,
			Subtotal:    Round2(product.Price * float64(item.Quantity)),
		})
	}

	subtotal, taxAmount, total := ComputeTotals(lines)

	order := &models.Order{
		ID:            orderID,
		UserID:        userID,
		InvoiceNumber: newInvoiceNumber(),
		Subtotal:      subtotal,
		TaxAmount:     taxAmount,
		Total:         total,
		Status:        models.OrderStatusPending,
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {

		if err := s.orderRepo.CreateOrder(txCtx, order); err != nil {
			return appErrors.DatabaseError("Failed to create order").WithError(err)
		}

		if err := s.lineRepo.CreateLines(txCtx, lines); err != nil {
			return appErrors.DatabaseError("Failed to create order lines").WithError(err)
		}

		for _, line := range lines {

			if err := s.productRepo.DecrementStock(txCtx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return appErrors.InsufficientStockError(productNames[line.ProductID])
				}

				return appErrors.DatabaseError("Failed to update inventory").WithError(err)
			}
		}

		if err := s.cartRepo.ClearCart(txCtx, userID); err != nil {
			return appErrors.DatabaseError("Failed to clear cart").WithError(err)
		}

		return nil
	})
	if err != nil {
		if _, ok := appErrors.IsAppError(err); ok {
			return nil, err
		}

		return nil, appErrors.DatabaseError("Failed to complete checkout").WithError(err)
	}

	s.afterCommit(ctx, order, lines)

	return &models.OrderSummary{
		OrderID:       order.ID,
		InvoiceNumber: order.InvoiceNumber,
		InvoiceDate:   order.CreatedAt,
		Lines:         lines,
		Subtotal:      order.Subtotal,
		TaxAmount:     order.TaxAmount,
		Total:         order.Total,
	}, nil
}

// afterCommit runs the best-effort side effects: cache invalidation for the
// decremented products, the order-placed event and the confirmation email.
// None of them can fail the checkout; the order is already committed.
func (s *checkoutService) afterCommit(ctx context.Context, order *models.Order, lines []models.OrderLine) {

	logger := slog.Default().With(slog.String("orderId", order.ID.String()))

	if s.cache != nil {
		for _, line := range lines {
			key := cache.Key(cache.ProductKeyPrefix, strconv.FormatInt(line.ProductID, 10))
			if err := s.cache.Delete(ctx, key); err != nil {
				logger.Warn("Failed to invalidate product cache", slog.String("key", key), slog.Any("error", err))
			}
		}
	}

	if s.publisher != nil {

		event := &events.OrderPlaced{
			OrderID:       order.ID,
			UserID:        order.UserID,
			InvoiceNumber: order.InvoiceNumber,
			Total:         order.Total,
			PlacedAt:      order.CreatedAt,
		}

		for _, line := range lines {
			event.Lines = append(event.Lines, events.OrderPlacedLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
		}

		if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
			logger.Warn("Failed to publish order placed event", slog.Any("error", err))
		}
	}

	if s.email != nil {
		s.sendConfirmation(ctx, logger, order, lines)
	}
}

func (s *checkoutService) sendConfirmation(ctx context.Context, logger *slog.Logger, order *models.Order, lines []models.OrderLine) {

	user, err := s.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		logger.Warn("Failed to look up user for confirmation email", slog.Any("error", err))
		return
	}

	var body strings.Builder

	fmt.Fprintf(&body, "Thank you for your order, %s.\n\n", user.Name)
	fmt.Fprintf(&body, "Invoice %s\n\n", order.InvoiceNumber)

	for _, line := range lines {
		fmt.Fprintf(&body, "%s x%d: %.2f\n", line.ProductName, line.Quantity, line.Subtotal)
	}

	fmt.Fprintf(&body, "\nSubtotal: %.2f\nTax: %.2f\nTotal: %.2f\n", order.Subtotal, order.TaxAmount, order.Total)

	subject := fmt.Sprintf("Order confirmation %s", order.InvoiceNumber)

	if err := s.email.Send(ctx, user.Email, subject, body.String(), ""); err != nil {
		logger.Warn("Failed to send confirmation email", slog.Any("error", err))
	}
}

// newInvoiceNumber produces a time-derived token with a short random suffix.
// The unique index on invoice_number is the final arbiter if two checkouts
// in the same second draw the same suffix.
func newInvoiceNumber() string {

	suffix := make([]byte, 2)
	rand.Read(suffix)

	return fmt.Sprintf("INV-%s-%s", time.Now().UTC().Format("20060102150405"), hex.EncodeToString(suffix))
}

func isCheckoutCode(err error, code string) bool {
	if appErr, ok := appErrors.IsAppError(err); ok {
		return appErr.Code == code
	}

	return false
}
