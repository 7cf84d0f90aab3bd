package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopmesh/storefront/internal/api/handlers"
	appErrors "github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	"github.com/shopmesh/storefront/internal/testutils"
)

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, req)
	if product := args.Get(0); product != nil {
		return product.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if product := args.Get(0); product != nil {
		return product.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, id, req)
	if product := args.Get(0); product != nil {
		return product.(*models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context, page, pageSize int) ([]*models.Product, int, error) {
	args := m.Called(ctx, page, pageSize)
	if products := args.Get(0); products != nil {
		return products.([]*models.Product), args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func TestProductHandler_CreateProduct(t *testing.T) {

	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("CreateProduct", mock.Anything, mock.AnythingOfType("*models.CreateProductRequest")).
			Return(&models.Product{ID: 1, Name: "Widget", Price: 10.00, StockQuantity: 5, SKU: "WID-001"}, nil)

		body := jsonBody(t, map[string]any{"name": "Widget", "price": 10.00, "stock_quantity": 5, "sku": "WID-001"})
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/products", body, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.CreateProduct().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		resp := decodeResponse(t, rr)
		assert.True(t, resp.Success)
		svc.AssertExpectations(t)
	})

	t.Run("Missing sku fails validation", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		body := jsonBody(t, map[string]any{"name": "Widget", "price": 10.00})
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/products", body, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.CreateProduct().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	})
}

func TestProductHandler_GetProduct(t *testing.T) {

	t.Run("Success", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("GetProductByID", mock.Anything, int64(42)).Return(&models.Product{ID: 42, Name: "Widget"}, nil)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/42", nil, map[string]string{"id": "42"})
		rr := httptest.NewRecorder()

		// Act
		handler.GetProduct().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Unknown product", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("GetProductByID", mock.Anything, int64(99)).Return(nil, appErrors.NotFoundError("Product not found"))

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/99", nil, map[string]string{"id": "99"})
		rr := httptest.NewRecorder()

		// Act
		handler.GetProduct().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusNotFound, rr.Code)
		resp := decodeResponse(t, rr)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("Malformed id", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products/abc", nil, map[string]string{"id": "abc"})
		rr := httptest.NewRecorder()

		// Act
		handler.GetProduct().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "GetProductByID", mock.Anything, mock.Anything)
	})
}

func TestProductHandler_UpdateProduct(t *testing.T) {

	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("UpdateProduct", mock.Anything, int64(42), mock.AnythingOfType("*models.UpdateProductRequest")).
			Return(&models.Product{ID: 42, Name: "Widget", Price: 12.50}, nil)

		body := jsonBody(t, map[string]any{"price": 12.50})
		req := testutils.CreateTestRequestWithContext(http.MethodPut, "/api/v1/products/42", body, userID, map[string]string{"id": "42"})
		rr := httptest.NewRecorder()

		// Act
		handler.UpdateProduct().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})
}

func TestProductHandler_ListProducts(t *testing.T) {

	t.Run("Defaults the pagination", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("ListProducts", mock.Anything, 1, 10).Return([]*models.Product{{ID: 1, Name: "Widget"}}, 1, nil)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products", nil, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.ListProducts().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertCalled(t, "ListProducts", mock.Anything, 1, 10)
	})

	t.Run("Clamps an oversized page size", func(t *testing.T) {
		// Arrange
		svc := new(MockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("ListProducts", mock.Anything, 2, 10).Return([]*models.Product{}, 0, nil)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/products?page=2&pageSize=500", nil, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.ListProducts().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertCalled(t, "ListProducts", mock.Anything, 2, 10)
	})
}
