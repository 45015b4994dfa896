// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package main runs the mevscope API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/luxfi/mevscope/api"
	"github.com/luxfi/mevscope/arbitrage"
	"github.com/luxfi/mevscope/config"
	"github.com/luxfi/mevscope/dashboard"
	"github.com/luxfi/mevscope/gas"
	"github.com/luxfi/mevscope/gateway"
	"github.com/luxfi/mevscope/mev"
	"github.com/luxfi/mevscope/observability"
	"github.com/luxfi/mevscope/synth"
)

var version = "dev"

func main() {
	var (
		configFile  = flag.String("config", "", "Path to a YAML config file")
		httpPort    = flag.Int("port", 0, "HTTP server port (overrides config)")
		showVersion = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("mevd %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	if *httpPort != 0 {
		cfg.Port = *httpPort
	}

	log := newLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	server, err := newServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to build server")
	}

	log.WithField("version", version).Info("Starting mevd")
	if err := server.Run(ctx); err != nil {
		log.WithError(err).Fatal("Server error")
	}
	log.Info("Server stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func newServer(cfg *config.Config, log *logrus.Logger) (*api.Server, error) {
	metrics := observability.NewMetrics("mevscope")

	opts := []gateway.Option{
		gateway.WithTimeout(cfg.GatewayTimeout),
		gateway.WithRetryBackoff(cfg.RetryBackoff),
		gateway.WithMetrics(metrics),
		gateway.WithLogger(log),
	}
	explorer := gateway.NewExplorer(cfg.ExplorerURL, cfg.ExplorerAPIKey, opts...)
	subgraph, err := gateway.NewSubgraph(cfg.SubgraphURL, opts...)
	if err != nil {
		return nil, err
	}

	gen := synth.New(cfg.MockSeed)

	svc := api.Services{
		MEV: mev.NewAnalyzer(explorer, gen,
			mev.WithSearchers(cfg.Searchers),
			mev.WithMetrics(metrics),
			mev.WithLogger(log),
		),
		Arbitrage: arbitrage.NewCalculator(gen),
		Gas:       gas.NewService(explorer, gen, metrics, log),
		Dashboard: dashboard.NewService(subgraph, gen, metrics, log),
	}

	return api.NewServer(api.Config{
		Port:            cfg.Port,
		Environment:     cfg.Environment,
		FrontendURL:     cfg.FrontendURL,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		MetricsEnabled:  cfg.MetricsEnabled,
	}, svc, metrics, log), nil
}
