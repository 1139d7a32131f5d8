package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"credchain/internal/platform/middleware"
)

// NewRouter wires all endpoints. Ledger-mutating and issuer-scoped routes sit
// behind bearer-token auth; reads and verification stay public so shared
// links work without a wallet.
func NewRouter(h *Handler, validator middleware.TokenValidator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.handleGetSession)
		r.Post("/session/connect", h.handleConnect)
		r.Post("/session/disconnect", h.handleDisconnect)

		r.Get("/credentials/owned/{address}", h.handleListOwned)
		r.Get("/verify/{tokenId}", h.handleVerifyToken)
		r.Post("/verify", h.handleVerify)
		r.Get("/universities", h.handleListUniversities)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(validator, h.logger))
			r.Post("/credentials", h.handleIssue)
			r.Delete("/credentials/{tokenId}", h.handleRevoke)
			r.Get("/credentials/issued", h.handleListIssued)
			r.Post("/universities", h.handleAddUniversity)
		})
	})

	return r
}
