package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/pkg/httpx"
)

type AuthHandler struct {
	Auth     *service.AuthService
	Sessions *service.SessionService
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	u, err := h.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

type loginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	u, err := h.Auth.Authenticate(r.Context(), req.Name, req.Password, httpx.IPKeyExtractor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	sess, err := h.Sessions.Create(r.Context(), u.ID, httpx.IPKeyExtractor(r), r.UserAgent())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setSessionCookie(w, sess.ID, sess.ExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if id := httpx.SessionID(r.Context()); id != "" {
		if err := h.Sessions.Destroy(r.Context(), id); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	Current string `json:"current_password"`
	Next    string `json:"new_password"`
}

func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	if err := h.Auth.ChangePassword(r.Context(), httpx.UserID(r.Context()), req.Current, req.Next); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
