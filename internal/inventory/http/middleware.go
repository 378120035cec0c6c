package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/pkg/httpx"
)

// SessionCookieName carries the opaque session id. The cookie is HttpOnly;
// the browser never sees session contents.
const SessionCookieName = "stocktake_session"

func setSessionCookie(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// requireSession resolves the session cookie and loads the user onto the
// request context. Requests without a valid session get a 401.
func requireSession(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "login required")
				return
			}

			sess, user, err := sessions.Resolve(r.Context(), cookie.Value)
			if errors.Is(err, service.ErrSessionNotFound) || errors.Is(err, service.ErrSessionExpired) {
				clearSessionCookie(w)
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "session expired")
				return
			}
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, httpx.CtxKeyUserID, user.ID)
			ctx = context.WithValue(ctx, httpx.CtxKeyUserName, user.Name)
			ctx = context.WithValue(ctx, httpx.CtxKeyIsAdmin, user.Admin)
			ctx = context.WithValue(ctx, httpx.CtxKeySessionID, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin must sit behind requireSession.
func requireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !httpx.IsAdmin(r.Context()) {
				httpx.WriteError(w, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
