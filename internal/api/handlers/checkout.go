package handlers

import (
	"log/slog"
	"net/http"

	"github.com/shopmesh/storefront/internal/api/middleware"
	"github.com/shopmesh/storefront/internal/errors"
	"github.com/shopmesh/storefront/internal/models"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/shopmesh/storefront/internal/utils/response"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Checkout takes no body; it operates entirely on the authenticated user's
// persisted cart state.
func (h *CheckoutHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized checkout attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		summary, err := h.checkoutService.Checkout(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Checkout failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Checkout completed",
			slog.String("orderId", summary.OrderID.String()),
			slog.String("invoiceNumber", summary.InvoiceNumber),
			slog.Float64("total", summary.Total))
		response.Success(w, http.StatusCreated, summary)
	}
}
