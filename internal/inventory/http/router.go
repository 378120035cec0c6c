package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stocktake/internal/inventory/service"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store"
	"github.com/aussiebroadwan/stocktake/internal/inventory/store/drivers/sqlite"
	"github.com/aussiebroadwan/stocktake/pkg/httpx"
	"github.com/aussiebroadwan/stocktake/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService        *service.AuthService
	SessionService     *service.SessionService
	ProductService     *service.ProductService
	ResponsibleService *service.ResponsibleService
	BackupService      *service.BackupService
	ExportService      *service.ExportService
	LookupClient       *service.LookupClient
	PoolStats          func() sqlite.PoolStats
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProducts()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	auth := &AuthHandler{Auth: r.AuthService, Sessions: r.SessionService}
	session := requireSession(r.SessionService)

	// Credential endpoints get the strict limit to slow brute force.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(auth.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(auth.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(auth.HandleLogout), session))
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(http.HandlerFunc(auth.HandleChangePassword),
			session,
			httpx.RateLimitByUser(httpx.StrictLimit),
		))
}

func (r *Router) registerProducts() {
	products := &ProductsHandler{Products: r.ProductService, Lookup: r.LookupClient}
	responsibles := &ResponsiblesHandler{Responsibles: r.ResponsibleService}
	session := requireSession(r.SessionService)

	r.Mux.Handle("GET /v1/products",
		httpx.Chain(http.HandlerFunc(products.HandleList),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("POST /v1/products",
		httpx.Chain(http.HandlerFunc(products.HandleCreate),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("DELETE /v1/products/{id}",
		httpx.Chain(http.HandlerFunc(products.HandleDelete),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/products/send",
		httpx.Chain(http.HandlerFunc(products.HandleSend),
			session,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("POST /v1/products/{id}/validate",
		httpx.Chain(http.HandlerFunc(products.HandleValidate),
			session,
			requireAdmin(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		))
	r.Mux.Handle("GET /v1/stats",
		httpx.Chain(http.HandlerFunc(products.HandleStats),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /v1/lookup/{ean}",
		httpx.Chain(http.HandlerFunc(products.HandleLookup),
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /v1/responsibles",
		httpx.Chain(responsibles,
			session,
			httpx.RateLimitByUser(httpx.LenientLimit),
		))
}

func (r *Router) registerAdmin() {
	admin := &AdminHandler{
		Products:  r.ProductService,
		Export:    r.ExportService,
		Backups:   r.BackupService,
		PoolStats: r.PoolStats,
	}
	session := requireSession(r.SessionService)

	chainAdmin := func(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(h, session, requireAdmin(), httpx.RateLimitByUser(limit))
	}

	r.Mux.Handle("GET /v1/admin/products", chainAdmin(admin.HandleListSent, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/admin/export", chainAdmin(admin.HandleExport, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/admin/backups", chainAdmin(admin.HandleCreateBackup, httpx.StrictLimit))
	r.Mux.Handle("GET /v1/admin/backups", chainAdmin(admin.HandleListBackups, httpx.LenientLimit))
	r.Mux.Handle("POST /v1/admin/backups/restore", chainAdmin(admin.HandleRestoreBackup, httpx.StrictLimit))
	r.Mux.Handle("GET /v1/admin/pool", chainAdmin(admin.HandlePoolStats, httpx.LenientLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store))
}
