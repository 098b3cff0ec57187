// Package http assembles the chi router: middleware chain, module handlers,
// and the operational endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auctionhandler "bidhall/internal/auction/handler"
	bidhandler "bidhall/internal/bid/handler"
	itemhandler "bidhall/internal/item/handler"
	notificationhandler "bidhall/internal/notification/handler"
	"bidhall/internal/platform/middleware"
)

// Handlers collects the per-module handlers mounted on the router.
type Handlers struct {
	Auctions      *auctionhandler.Handler
	Items         *itemhandler.Handler
	Bids          *bidhandler.Handler
	Notifications *notificationhandler.Handler
}

// Config carries router-level settings.
type Config struct {
	JWTSigningKey           string
	InsecureIdentityHeaders bool
}

// NewRouter wires the middleware chain and every module's routes.
func NewRouter(cfg Config, h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Identity(cfg.JWTSigningKey, cfg.InsecureIdentityHeaders, logger))

	h.Auctions.Register(r)
	h.Items.Register(r)
	h.Bids.Register(r)
	h.Notifications.Register(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
