// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package gatewaytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/luxfi/mevscope/gateway"
)

// Subgraph is a fake Uniswap V2 subgraph GraphQL endpoint.
type Subgraph struct {
	*httptest.Server

	mu      sync.Mutex
	swaps   map[string][]gateway.Swap
	failing map[string]bool
	status  int
	queries int
}

// NewSubgraph starts a fake subgraph. Callers must Close it.
func NewSubgraph() *Subgraph {
	s := &Subgraph{
		swaps:   make(map[string][]gateway.Swap),
		failing: make(map[string]bool),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// SetSwaps sets the swaps returned for pair.
func (s *Subgraph) SetSwaps(pair string, swaps ...gateway.Swap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps[strings.ToLower(pair)] = swaps
}

// FailPair makes queries for pair return a GraphQL error.
func (s *Subgraph) FailPair(pair string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[strings.ToLower(pair)] = true
}

// FailWith makes every request answer with HTTP status code.
func (s *Subgraph) FailWith(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = code
}

// Queries returns the number of requests served.
func (s *Subgraph) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

func (s *Subgraph) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++

	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}

	var req struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&req) != nil || !strings.Contains(req.Query, "swaps") {
		writeGraphQLError(w, "invalid request")
		return
	}

	pair, _ := req.Variables["pair"].(string)
	first, _ := req.Variables["first"].(float64)
	if s.failing[pair] {
		writeGraphQLError(w, "indexing_error")
		return
	}

	swaps := s.swaps[pair]
	if first > 0 && int(first) < len(swaps) {
		swaps = swaps[:int(first)]
	}

	nodes := make([]map[string]interface{}, 0, len(swaps))
	for i, sw := range swaps {
		nodes = append(nodes, map[string]interface{}{
			"id":          sw.TxHash + "-" + strconv.Itoa(i),
			"transaction": map[string]string{"id": sw.TxHash, "timestamp": strconv.FormatInt(sw.Timestamp, 10)},
			"sender":      sw.Sender,
			"to":          sw.Recipient,
			"amount0In":   sw.Amount0In,
			"amount1In":   sw.Amount1In,
			"amount0Out":  sw.Amount0Out,
			"amount1Out":  sw.Amount1Out,
			"amountUSD":   sw.AmountUSD,
			"pair":        map[string]string{"id": pair},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{"swaps": nodes},
	})
}

func writeGraphQLError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":   nil,
		"errors": []map[string]string{{"message": msg}},
	})
}
