package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/booking"
)

type accountService interface {
	CreateAccount(ctx context.Context, params application.CreateAccountParams) (application.Account, error)
	UpdateAccount(ctx context.Context, params application.UpdateAccountParams) (application.Account, error)
	DeleteAccount(ctx context.Context, principal application.Principal, accountID string) error
	GetAccount(ctx context.Context, principal application.Principal, accountID string) (application.Account, error)
	ListAccounts(ctx context.Context, principal application.Principal) ([]application.Account, error)
}

type AccountHandler struct {
	service   accountService
	responder responder
	logger    *slog.Logger
}

func NewAccountHandler(service accountService, logger *slog.Logger) *AccountHandler {
	base := defaultLogger(logger)
	return &AccountHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AccountHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "AccountHandler", operation, attrs...)
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode account request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), application.CreateAccountParams{
		Principal: principal,
		Input: application.AccountInput{
			Username: req.Username,
			Password: req.Password,
			Role:     booking.Role(req.Role),
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, accountResponse{Account: toAccountDTO(account)})
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	accountID := mux.Vars(r)["id"]

	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "account_id", accountID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode account update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, codeBadRequest, errBadRequestBody)
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), application.UpdateAccountParams{
		Principal: principal,
		AccountID: accountID,
		Username:  req.Username,
		Role:      booking.Role(req.Role),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, accountResponse{Account: toAccountDTO(account)})
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteAccount(r.Context(), principal, mux.Vars(r)["id"]); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	account, err := h.service.GetAccount(r.Context(), principal, mux.Vars(r)["id"])
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, accountResponse{Account: toAccountDTO(account)})
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	accounts, err := h.service.ListAccounts(r.Context(), principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountDTO(a))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAccountsResponse{Accounts: out})
}

type accountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type accountResponse struct {
	Account accountDTO `json:"account"`
}

type listAccountsResponse struct {
	Accounts []accountDTO `json:"accounts"`
}

type accountDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toAccountDTO(a application.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Username:  a.Username,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
