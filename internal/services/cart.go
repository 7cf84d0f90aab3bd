package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	appErrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/metrics"
	"github.com/shopmesh/storefront/internal/models"
	repository "github.com/shopmesh/storefront/internal/repositories"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartView, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.CartView, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart joins the stored lines against the live catalog. Cart quantities
// are advisory, so prices and names always come from the products table.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.CartView, error) {

	items, err := s.cartRepo.GetItems(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	return s.buildView(ctx, userID, items, "")
}

// AddItem is additive: adding quantity 1 twice leaves the line at 2. The
// request fails, without touching the cart, when the quantity does not fit
// the remaining (stock minus already-in-cart) units.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.CartView, error) {

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found")
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	inCart, err := s.cartRepo.GetQuantity(ctx, userID, req.ProductID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	maxAddable := product.StockQuantity - inCart
	if product.StockQuantity <= 0 || req.Quantity > maxAddable {
		metrics.StockConflictsTotal.Inc()
		return nil, appErrors.InsufficientStockError(product.Name)
	}

	if inCart+req.Quantity > models.MaxLineQuantity {
		return nil, appErrors.BadRequestError(fmt.Sprintf("Cannot hold more than %d units of %s", models.MaxLineQuantity, product.Name))
	}

	if err := s.cartRepo.AddQuantity(ctx, userID, req.ProductID, req.Quantity); err != nil {
		return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateQuantity overwrites the line's quantity, clamped to [1, 999]. A
// quantity of zero or less removes the line. When the product has sold out
// entirely since the line was added, the line is removed rather than capped
// and the returned view carries a notice for the user.
func (s *cartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateQuantityRequest) (*models.CartView, error) {

	if req.Quantity <= 0 {
		return s.RemoveItem(ctx, userID, req.ProductID)
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found")
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if product.StockQuantity <= 0 {

		if err := s.cartRepo.RemoveItem(ctx, userID, req.ProductID); err != nil {
			return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
		}

		items, err := s.cartRepo.GetItems(ctx, userID)
		if err != nil {
			return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
		}

		notice := fmt.Sprintf("%s is out of stock and was removed from your cart", product.Name)

		return s.buildView(ctx, userID, items, notice)
	}

	quantity := min(req.Quantity, models.MaxLineQuantity)

	// An overwrite replaces the existing line, so it is checked against the
	// available stock alone rather than stock minus in-cart.
	if quantity > product.StockQuantity {
		metrics.StockConflictsTotal.Inc()
		return nil, appErrors.InsufficientStockError(product.Name)
	}

	if err := s.cartRepo.SetQuantity(ctx, userID, req.ProductID, quantity); err != nil {
		return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem is a no-op when the line is absent.
func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartView, error) {

	if err := s.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		return nil, appErrors.DatabaseError("Failed to update cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {

	if err := s.cartRepo.ClearCart(ctx, userID); err != nil {
		return appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}

func (s *cartService) buildView(ctx context.Context, userID uuid.UUID, items []models.CartItem, notice string) (*models.CartView, error) {

	view := &models.CartView{UserID: userID, Lines: []models.CartLine{}, Notice: notice}

	var pricingLines []models.OrderLine

	for _, item := range items {

		product, err := s.productRepo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Product removed from the catalog; skip its line.
				continue
			}

			return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
		}

		view.Lines = append(view.Lines, models.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  item.Quantity,
			LineTotal: Round2(product.Price * float64(item.Quantity)),
		})

		pricingLines = append(pricingLines, models.OrderLine{UnitPrice: product.Price, Quantity: item.Quantity})
	}

	view.Subtotal, view.TaxAmount, view.Total = ComputeTotals(pricingLines)

	return view, nil
}
