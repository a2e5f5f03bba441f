package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/KunalBagaria/tokengate/middleware"
	"github.com/KunalBagaria/tokengate/models"
	"github.com/KunalBagaria/tokengate/repositories"
	"github.com/KunalBagaria/tokengate/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LinkCustomerRequest is the body of PUT /api/v1/account/customer
type LinkCustomerRequest struct {
	CustomerID string `json:"customer_id" validate:"required,uuid"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
}

// AccountHandler manages the registry customer linked to the logged-in user.
// Routes using it must sit behind AuthMiddleware.RequireSession.
type AccountHandler struct {
	accounts repositories.CustomerAccountRepository
	logger   *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts repositories.CustomerAccountRepository, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// HandleGet handles GET /api/v1/account/customer
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		_ = utils.WriteUnauthorized(w, "Not logged in")
		return
	}

	account, err := h.accounts.GetByUserID(r.Context(), userID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, account)
}

// HandleLink handles PUT /api/v1/account/customer
func (h *AccountHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		_ = utils.WriteUnauthorized(w, "Not logged in")
		return
	}

	var req LinkCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	// validated above
	customerID := uuid.MustParse(req.CustomerID)
	account := models.NewCustomerAccount(userID, customerID, req.Email)
	if err := h.accounts.Link(r.Context(), account); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("customer linked",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", userID),
		zap.String("customer_id", req.CustomerID))
	_ = utils.WriteOK(w, account)
}

// HandleUnlink handles DELETE /api/v1/account/customer
func (h *AccountHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if userID == "" {
		_ = utils.WriteUnauthorized(w, "Not logged in")
		return
	}

	if err := h.accounts.Unlink(r.Context(), userID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
