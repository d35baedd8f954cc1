package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guardianbridge/core"
	"guardianbridge/relayer"
)

// AdminServer is the relayer daemon's HTTP admin/query surface (spec §1
// non-goal "CLI parsing and logging" excludes a feature-rich CLI, not
// this kind of ordinary operator surface; grounded on the teacher's
// cmd/xchainserver). Bridge is the process's own read-model BridgeContract
// instance, kept in sync with the real on-chain contract by whatever
// reconciliation job the deployment runs; this server never mutates
// chain state directly except for the idempotent PayoutRewards trigger.
type AdminServer struct {
	Bridge      *core.BridgeContract
	Connections *relayer.ConnectionRegistry
	Breaker     *relayer.CircuitBreaker
	Metrics     *relayer.Metrics
}

// NewRouter configures the HTTP routes for the relayer's admin surface.
func NewRouter(s *AdminServer) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)

	r.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{}))
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(JSONHeaders)

	// committee/pair/halted/breaker query surface
	api.HandleFunc("/committees/current", s.currentCommittee).Methods(http.MethodGet)
	api.HandleFunc("/committees/{id}", s.committee).Methods(http.MethodGet)
	api.HandleFunc("/pairs/{local}", s.pair).Methods(http.MethodGet)
	api.HandleFunc("/halted", s.halted).Methods(http.MethodGet)
	api.HandleFunc("/breaker", s.breakerStatus).Methods(http.MethodGet)

	// reward ledger
	api.HandleFunc("/rewards/{committee}/{token}", s.collectedRewards).Methods(http.MethodGet)
	api.HandleFunc("/payouts", s.payout).Methods(http.MethodPost)

	// connection lifecycle
	api.HandleFunc("/connections", s.listConnections).Methods(http.MethodGet)
	api.HandleFunc("/connections", s.openConnection).Methods(http.MethodPost)
	api.HandleFunc("/connections/{id}", s.closeConnection).Methods(http.MethodDelete)

	return r
}
