// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/mevscope/config"
)

func TestNewLogger(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "debug"
	log := newLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	cfg.Environment = "production"
	cfg.LogLevel = "loud"
	log = newLogger(cfg)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewServerServesHealth(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = "test"
	cfg.MockSeed = 1

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	srv, err := newServer(cfg, log)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"environment":"test"`)
}
