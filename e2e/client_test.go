// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient talks to a running mevscope server.
type APIClient struct {
	url    string
	client *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(url string) *APIClient {
	return &APIClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Envelope is the JSON envelope of data endpoints.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Source  string          `json:"source"`
	Error   string          `json:"error"`
}

// Response is a decoded HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Envelope decodes the body as an envelope.
func (r *Response) Envelope() (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return &env, nil
}

// Get performs a GET request against path.
func (c *APIClient) Get(path string) (*Response, error) {
	return c.do(http.MethodGet, path, nil)
}

// Post sends body as JSON to path.
func (c *APIClient) Post(path string, body interface{}) (*Response, error) {
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		raw = data
	}
	return c.do(http.MethodPost, path, raw)
}

func (c *APIClient) do(method, path string, body []byte) (*Response, error) {
	req, err := http.NewRequest(method, c.url+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
