package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/agristore/storefront-api/internal/repository"
	"github.com/agristore/storefront-api/internal/service"
	apperrors "github.com/agristore/storefront-api/pkg/errors"
)

// healthCheckHandler reports service and database health
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("Health check failed", "error", err)
		s.respondWithJSON(w, http.StatusServiceUnavailable, ApiResponse{
			Success: false,
			Error:   "Database unavailable",
		})
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    map[string]string{"status": "ok"},
	})
}

// getProductHandler returns one catalog entry
func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.ParseInt(vars["id"], 10, 64)

	if err != nil {
		s.respondWithAppError(w, apperrors.NewInvalidInputError("Invalid product ID"))
		return
	}

	product, err := s.productRepo.GetByID(r.Context(), id)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithAppError(w, apperrors.NewNotFoundError("Product not found"))
			return
		}
		s.handleServiceError(w, err, "Failed to fetch product")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: product})
}

// checkoutHandler creates an unplaced order from the caller's cart and the
// submitted checkout form.
func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var form service.CheckoutForm

	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		s.respondWithAppError(w, apperrors.NewInvalidInputError("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	placed, err := s.checkoutService.PlaceOrder(r.Context(), userID, clientIP(r), form)

	if err != nil {
		var validationErr *service.ValidationError

		switch {
		case errors.Is(err, service.ErrEmptyCart):
			s.respondWithJSON(w, http.StatusBadRequest, ApiResponse{
				Success: false,
				Error:   "Your cart is empty",
				Warning: "Add items to your cart before checking out",
			})
		case errors.As(err, &validationErr):
			s.respondWithJSON(w, http.StatusBadRequest, ApiResponse{
				Success: false,
				Error:   "Invalid checkout form",
				Data:    map[string]interface{}{"fields": validationErr.Fields},
			})
		default:
			s.handleServiceError(w, err, "Failed to place order")
		}
		return
	}

	s.respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"order": placed.Order,
			"cart": map[string]interface{}{
				"quantity": placed.Cart.Quantity,
				"total":    placed.Cart.Total,
			},
		},
	})
}

// finalizeOrderHandler converts an unplaced order into a placed one and
// dispatches the confirmation notifications. Notifications run strictly after
// the transaction committed; their failure never fails the placement.
func (s *Server) finalizeOrderHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req struct {
		OrderID string `json:"orderID"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithAppError(w, apperrors.NewInvalidInputError("Invalid request payload"))
		return
	}
	defer r.Body.Close()

	if req.OrderID == "" {
		s.respondWithAppError(w, apperrors.NewInvalidInputError("orderID is required"))
		return
	}

	finalized, err := s.checkoutService.FinalizeOrder(r.Context(), userID, req.OrderID)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithAppError(w, apperrors.NewNotFoundError("No matching unplaced order"))
			return
		}
		s.handleServiceError(w, err, "Failed to finalize order")
		return
	}

	result := s.dispatcher.DispatchOrderConfirmation(r.Context(), finalized.Order, finalized.Payment, finalized.Lines)

	// Placement already committed; notification failures never change this.
	data := map[string]interface{}{
		"status":        "success",
		"order_number":  result.OrderNumber,
		"payment_id":    result.PaymentID,
		"whatsapp_url":  result.WhatsAppURL,
		"whatsapp_sent": result.WhatsAppSent,
		"email_sent":    result.EmailSent,
	}

	if result.EmailError != "" && s.config.IsDebug() {
		data["email_error"] = result.EmailError
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data})
}

// orderCompleteHandler serves the confirmation view for a placed order.
// Both the order number and the payment id must match.
func (s *Server) orderCompleteHandler(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.URL.Query().Get("order_number")
	paymentID := r.URL.Query().Get("payment_id")

	if orderNumber == "" || paymentID == "" {
		s.respondWithAppError(w, apperrors.NewInvalidInputError("order_number and payment_id are required"))
		return
	}

	completed, err := s.checkoutService.OrderComplete(r.Context(), orderNumber, paymentID)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondWithAppError(w, apperrors.NewNotFoundError("Order not found"))
			return
		}
		s.handleServiceError(w, err, "Failed to load order")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"order":    completed.Order,
			"payment":  completed.Payment,
			"lines":    completed.Lines,
			"subtotal": completed.Subtotal,
		},
	})
}

// listOrdersHandler returns the caller's orders, newest first.
func (s *Server) listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))

	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))

	if err != nil || offset < 0 {
		offset = 0
	}

	orders, err := s.orderRepo.GetByUser(r.Context(), userID, limit, offset)

	if err != nil {
		s.handleServiceError(w, err, "Failed to fetch orders")
		return
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"orders": orders,
			"count":  len(orders),
		},
	})
}

// cancelOrderHandler cancels one of the caller's orders. The cancellation
// commits first; the notification emails are best-effort afterwards.
func (s *Server) cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	vars := mux.Vars(r)

	orderID, err := strconv.ParseInt(vars["id"], 10, 64)

	if err != nil {
		s.respondWithAppError(w, apperrors.NewInvalidInputError("Invalid order ID"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}

	// An empty body means no reason given
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
		defer r.Body.Close()
	}

	cancelled, err := s.cancelService.CancelOrder(r.Context(), userID, orderID, req.Reason)

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondWithAppError(w, apperrors.NewNotFoundError("Order not found"))
		case errors.Is(err, service.ErrNotCancellable):
			s.respondWithAppError(w, apperrors.NewConflictError("Order cannot be cancelled at this stage"))
		default:
			s.handleServiceError(w, err, "Failed to cancel order")
		}
		return
	}

	if cancelled.AlreadyCancelled {
		s.respondWithJSON(w, http.StatusOK, ApiResponse{
			Success: true,
			Warning: "Order was already cancelled",
			Data:    map[string]interface{}{"order": cancelled.Order},
		})
		return
	}

	emailsSent := true

	if err := s.dispatcher.SendCancellationNotices(r.Context(), cancelled.Order); err != nil {
		emailsSent = false
	}

	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"order":       cancelled.Order,
			"emails_sent": emailsSent,
		},
	})
}

// mailerStatusHandler exposes the mail circuit breaker state
func (s *Server) mailerStatusHandler(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data:    s.mailer.Metrics(),
	})
}

// respondWithAppError writes a structured application error
func (s *Server) respondWithAppError(w http.ResponseWriter, appErr *apperrors.AppError) {
	s.respondWithError(w, appErr.StatusCode, appErr.Message)
}

// handleServiceError maps unexpected errors to a response. Internal detail is
// only surfaced in development.
func (s *Server) handleServiceError(w http.ResponseWriter, err error, message string) {
	s.logger.Error(message, "error", err)

	appErr := apperrors.NewInternalError(message)

	if s.config.IsDebug() {
		appErr.Message = message + ": " + err.Error()
	}

	s.respondWithAppError(w, appErr)
}
