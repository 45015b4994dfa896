// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// DefaultSwapLimit is the number of swaps fetched per pool.
const DefaultSwapLimit = 10

const poolSwapsQuery = `query PoolSwaps($pair: String!, $first: Int!) {
  swaps(first: $first, orderBy: timestamp, orderDirection: desc, where: { pair: $pair }) {
    id
    transaction { id timestamp }
    sender
    to
    amount0In
    amount1In
    amount0Out
    amount1Out
    amountUSD
    pair { id }
  }
}`

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data struct {
		Swaps []swapNode `json:"swaps"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

type swapNode struct {
	ID          string `json:"id"`
	Transaction struct {
		ID        string `json:"id"`
		Timestamp string `json:"timestamp"`
	} `json:"transaction"`
	Sender     string `json:"sender"`
	To         string `json:"to"`
	Amount0In  string `json:"amount0In"`
	Amount1In  string `json:"amount1In"`
	Amount0Out string `json:"amount0Out"`
	Amount1Out string `json:"amount1Out"`
	AmountUSD  string `json:"amountUSD"`
}

// Subgraph queries the Uniswap V2 subgraph.
type Subgraph struct {
	endpoint  string
	operation string
	c         *client
}

// NewSubgraph creates a subgraph client. The swap query is parsed up front so
// a malformed document fails at construction.
func NewSubgraph(endpoint string, opts ...Option) (*Subgraph, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "PoolSwaps", Input: poolSwapsQuery})
	if err != nil {
		return nil, fmt.Errorf("parse swap query: %w", err)
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("swap query: expected one operation, got %d", len(doc.Operations))
	}

	return &Subgraph{
		endpoint:  endpoint,
		operation: doc.Operations[0].Name,
		c:         newClient("subgraph", opts),
	}, nil
}

// PoolSwaps returns the latest swaps of a V2 pair, newest first. The V2
// subgraph does not expose block numbers, so BlockNumber is always 0.
func (s *Subgraph) PoolSwaps(ctx context.Context, pool string, limit int) []Swap {
	const action = "swaps"

	if limit <= 0 {
		limit = DefaultSwapLimit
	}

	body, err := json.Marshal(graphQLRequest{
		Query:         poolSwapsQuery,
		OperationName: s.operation,
		Variables: map[string]interface{}{
			"pair":  strings.ToLower(pool),
			"first": limit,
		},
	})
	if err != nil {
		s.c.fail(action, err)
		return []Swap{}
	}

	build := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	var resp graphQLResponse
	if err := s.c.do(ctx, action, build, &resp); err != nil {
		s.c.fail(action, err)
		return []Swap{}
	}
	if len(resp.Errors) > 0 {
		s.c.fail(action, errors.New(resp.Errors[0].Message))
		return []Swap{}
	}

	swaps := make([]Swap, 0, len(resp.Data.Swaps))
	for _, n := range resp.Data.Swaps {
		ts, _ := strconv.ParseInt(n.Transaction.Timestamp, 10, 64)
		swaps = append(swaps, Swap{
			TxHash:     n.Transaction.ID,
			Timestamp:  ts,
			Sender:     n.Sender,
			Recipient:  n.To,
			Amount0In:  n.Amount0In,
			Amount1In:  n.Amount1In,
			Amount0Out: n.Amount0Out,
			Amount1Out: n.Amount1Out,
			AmountUSD:  n.AmountUSD,
		})
	}
	return swaps
}
