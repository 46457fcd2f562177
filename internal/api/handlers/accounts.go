package handlers

import (
	"net/http"
	"strconv"

	"shelftrack/internal/controllers"

	"github.com/sirupsen/logrus"
)

// AccountsHandler handles account management requests
type AccountsHandler struct {
	accounts     *controllers.AccountsController
	defaultOwner int
	logger       *logrus.Logger
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(accounts *controllers.AccountsController, defaultOwner int, logger *logrus.Logger) *AccountsHandler {
	return &AccountsHandler{
		accounts:     accounts,
		defaultOwner: defaultOwner,
		logger:       logger,
	}
}

// ServeHTTP dispatches account requests by method
func (h *AccountsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.save(w, r)
	case http.MethodDelete:
		h.delete(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AccountsHandler) list(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r, h.defaultOwner)
	views, err := h.accounts.List(owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list accounts")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AccountsHandler) save(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r, h.defaultOwner)

	var input controllers.AccountInput
	if err := readJSON(r, &input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.accounts.Save(owner, input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":   account.ID,
		"name": account.AccountName,
	})
}

func (h *AccountsHandler) delete(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r, h.defaultOwner)

	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 32)
	if err != nil || id == 0 {
		http.Error(w, "Missing or invalid id", http.StatusBadRequest)
		return
	}
	if err := h.accounts.Delete(owner, uint(id)); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
