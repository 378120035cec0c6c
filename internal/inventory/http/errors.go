package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/stocktake/internal/inventory/domain"
	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/pkg/httpx"
	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

// writeServiceError maps service and store errors onto the JSON error
// envelope. Anything unrecognized is a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", verr.Message)

	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, service.ErrAccountLocked):
		httpx.WriteError(w, http.StatusLocked, "account_locked", err.Error())
	case errors.Is(err, service.ErrUserExists):
		httpx.WriteError(w, http.StatusConflict, "user_exists", err.Error())

	case errors.Is(err, service.ErrWrongPIN):
		httpx.WriteError(w, http.StatusForbidden, "wrong_pin", err.Error())
	case errors.Is(err, service.ErrNothingToSend):
		httpx.WriteError(w, http.StatusBadRequest, "nothing_to_send", err.Error())
	case errors.Is(err, service.ErrInvalidQuantity):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, service.ErrNotProductOwner):
		httpx.WriteError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, service.ErrAlreadySent):
		httpx.WriteError(w, http.StatusConflict, "already_sent", err.Error())
	case errors.Is(err, service.ErrNotSentYet):
		httpx.WriteError(w, http.StatusConflict, "not_sent", err.Error())
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, service.ErrBackupNotFound):
		httpx.WriteError(w, http.StatusNotFound, "backup_not_found", err.Error())
	case errors.Is(err, service.ErrBackupCorrupt):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "backup_corrupt", err.Error())

	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
	}
}
