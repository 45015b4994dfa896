// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package api exposes the MEV, arbitrage, protection, gas and dashboard
// services as JSON over HTTP, plus the WebSocket feed rooms.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/luxfi/mevscope/arbitrage"
	"github.com/luxfi/mevscope/dashboard"
	"github.com/luxfi/mevscope/gas"
	"github.com/luxfi/mevscope/mev"
	"github.com/luxfi/mevscope/observability"
)

// Config for the API server
type Config struct {
	Port            int
	Environment     string
	FrontendURL     string
	RateLimitMax    int
	RateLimitWindow time.Duration
	MetricsEnabled  bool
}

// Services are the domain services behind the handlers.
type Services struct {
	MEV       *mev.Analyzer
	Arbitrage *arbitrage.Calculator
	Gas       *gas.Service
	Dashboard *dashboard.Service
}

// Server provides the REST API and WebSocket rooms
type Server struct {
	config  Config
	svc     Services
	hub     *Hub
	metrics *observability.Metrics
	log     logrus.FieldLogger
	router  *mux.Router
	handler http.Handler
	started time.Time
}

// Response is the JSON envelope of every data endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Count   *int        `json:"count,omitempty"`
	Source  string      `json:"source,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer creates a new API server
func NewServer(cfg Config, svc Services, metrics *observability.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "api")

	s := &Server{
		config:  cfg,
		svc:     svc,
		hub:     NewHub(metrics, log),
		metrics: metrics,
		log:     log,
		router:  mux.NewRouter(),
		started: time.Now(),
	}

	s.setupRoutes()
	s.handler = s.middleware(s.router)
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.metricsMiddleware)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()

	// MEV
	api.HandleFunc("/mev/transactions", s.handleMEVTransactions).Methods(http.MethodGet)
	api.HandleFunc("/mev/stats", s.handleMEVStats).Methods(http.MethodGet)
	api.HandleFunc("/mev/trends", s.handleMEVTrends).Methods(http.MethodGet)
	api.HandleFunc("/mev/blocks/{block}", s.handleMEVBlock).Methods(http.MethodGet)

	// Arbitrage
	api.HandleFunc("/arbitrage/opportunities", s.handleArbitrageOpportunities).Methods(http.MethodGet)
	api.HandleFunc("/arbitrage/calculate", s.handleArbitrageCalculate).Methods(http.MethodPost)

	// Protection
	api.HandleFunc("/protection/analyze", s.handleProtectionAnalyze).Methods(http.MethodPost)

	// Gas
	api.HandleFunc("/gas/current", s.handleGasCurrent).Methods(http.MethodGet)
	api.HandleFunc("/gas/predictions", s.handleGasPredictions).Methods(http.MethodGet)
	api.HandleFunc("/gas/history", s.handleGasHistory).Methods(http.MethodGet)
	api.HandleFunc("/gas/mev-impact", s.handleGasMEVImpact).Methods(http.MethodGet)

	// Dashboard
	api.HandleFunc("/dashboard/market", s.handleDashboardMarket).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/leaderboard", s.handleDashboardLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/dex-efficiency", s.handleDashboardDexEfficiency).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/cross-chain", s.handleDashboardCrossChain).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/pools/transactions", s.handlePoolTransactions).Methods(http.MethodGet)
	api.HandleFunc("/pools/transactions", s.handlePoolTransactions).Methods(http.MethodGet)

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.config.MetricsEnabled && s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleNotFound)
}

// Run starts the API server and the WebSocket hub. It returns after ctx is
// canceled and the server has shut down.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("Graceful shutdown failed")
		}
	}()

	s.log.WithFields(logrus.Fields{
		"port":        s.config.Port,
		"environment": s.config.Environment,
	}).Info("Server starting")
	s.log.Infof("Health check: http://localhost:%d/health", s.config.Port)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router returns the HTTP router for testing
func (s *Server) Router() *mux.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Helper functions

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Warn("Failed to encode response")
	}
}

func (s *Server) writeData(w http.ResponseWriter, data interface{}, source string) {
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: data, Source: source})
}

func (s *Server) writeList(w http.ResponseWriter, data interface{}, count int, source string) {
	s.writeJSON(w, http.StatusOK, Response{Success: true, Data: data, Count: &count, Source: source})
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, Response{Success: false, Error: message, Data: struct{}{}})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, http.StatusNotFound, "Not Found - "+r.URL.Path)
}
