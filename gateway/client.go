// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package gateway wraps the read-only upstream services: an Etherscan-style
// explorer API and the Uniswap V2 subgraph. Calls never return errors to
// callers; failures are logged and surface as empty or absent results.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/luxfi/mevscope/observability"
)

// Default configuration values.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultRetryBackoff = 250 * time.Millisecond
	DefaultMaxRetries   = 1

	maxResponseBytes = 8 << 20
)

// StatusError is returned for non-2xx upstream responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Option configures a gateway client.
type Option func(*client)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetryBackoff sets the delay before the retry.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}

// WithMaxRetries sets how many times a failed call is retried.
func WithMaxRetries(n int) Option {
	return func(c *client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *client) {
		c.log = l
	}
}

// WithMetrics records call latency and outcome.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *client) {
		c.metrics = m
	}
}

// client is the HTTP plumbing shared by Explorer and Subgraph.
type client struct {
	name         string
	http         *http.Client
	timeout      time.Duration
	retryBackoff time.Duration
	maxRetries   int
	log          logrus.FieldLogger
	metrics      *observability.Metrics
}

func newClient(name string, opts []Option) *client {
	c := &client{
		name:         name,
		http:         &http.Client{},
		timeout:      DefaultTimeout,
		retryBackoff: DefaultRetryBackoff,
		maxRetries:   DefaultMaxRetries,
		log:          logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("gateway", name)
	return c
}

// do runs build+send+decode under a per-attempt timeout, retrying transport
// errors, 429 and 5xx responses with exponential backoff.
func (c *client) do(ctx context.Context, action string, build func(context.Context) (*http.Request, error), out interface{}) error {
	start := time.Now()

	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := build(attemptCtx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("create request: %w", err))
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{Code: resp.StatusCode}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBackoff
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		c.log.WithFields(logrus.Fields{
			"action": action,
			"wait":   wait,
			"error":  err,
		}).Debug("Retrying gateway call")
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx), notify)
	c.metrics.RecordGatewayCall(c.name, action, time.Since(start), err)
	return err
}

// fail logs a swallowed gateway error.
func (c *client) fail(action string, err error) {
	entry := c.log.WithFields(logrus.Fields{"action": action, "error": err})
	if errors.Is(err, context.Canceled) {
		entry.Debug("Gateway call canceled")
		return
	}
	entry.Warn("Gateway call failed")
}
