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

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*models.LoginResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUserHandler_Register(t *testing.T) {

	t.Run("Success", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		svc.On("Register", mock.Anything, mock.AnythingOfType("*models.RegisterRequest")).
			Return(&models.User{ID: uuid.New(), Name: "New User", Email: "new@example.com"}, nil)

		body := jsonBody(t, map[string]any{"name": "New User", "email": "new@example.com", "password": "correct horse"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)
		resp := decodeResponse(t, rr)
		assert.True(t, resp.Success)
	})

	t.Run("Short password fails validation", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		body := jsonBody(t, map[string]any{"name": "New User", "email": "new@example.com", "password": "short"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		svc.On("Register", mock.Anything, mock.AnythingOfType("*models.RegisterRequest")).
			Return(nil, appErrors.DuplicateEntryError("Email already registered"))

		body := jsonBody(t, map[string]any{"name": "New User", "email": "taken@example.com", "password": "correct horse"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/register", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Register().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusConflict, rr.Code)
		resp := decodeResponse(t, rr)
		require.NotNil(t, resp.Error)
		assert.Equal(t, appErrors.ErrCodeDuplicateEntry, resp.Error.Code)
	})
}

func TestUserHandler_Login(t *testing.T) {

	t.Run("Success", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		svc.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(&models.LoginResponse{Success: true, Token: "signed-token", ExpiresIn: 86400}, nil)

		body := jsonBody(t, map[string]any{"email": "user@example.com", "password": "correct horse"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decodeResponse(t, rr)
		assert.True(t, resp.Success)
	})

	t.Run("Wrong credentials", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		svc.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(&models.LoginResponse{Success: false, Message: "Invalid email or password", RemainingTries: 3}, nil)

		body := jsonBody(t, map[string]any{"email": "user@example.com", "password": "wrong pass"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Rate limited", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		svc.On("Login", mock.Anything, mock.AnythingOfType("*models.LoginRequest")).
			Return(&models.LoginResponse{Success: false, Message: "Too many login attempts. Please try again later.", RetryAfter: 12}, nil)

		body := jsonBody(t, map[string]any{"email": "user@example.com", "password": "correct horse"})
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/users/login", body, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Login().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	})
}

func TestUserHandler_Profile(t *testing.T) {

	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		svc.On("GetUserByID", mock.Anything, userID).Return(&models.User{ID: userID, Name: "Test User", Email: "test@example.com"}, nil)

		req := testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/users/profile", nil, userID, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Profile().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		// Arrange
		svc := new(MockUserService)
		handler := handlers.NewUserHandler(svc)

		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/users/profile", nil, nil)
		rr := httptest.NewRecorder()

		// Act
		handler.Profile().ServeHTTP(rr, req)

		// Assert
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})
}
