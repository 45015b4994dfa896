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
	"net/url"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Etherscan status values
const (
	statusOK    = "1"
	statusNotOK = "0"
)

const msgNoTransactions = "No transactions found"

var errEmptyResult = errors.New("empty result")

// rpcResponse is the Etherscan envelope. Account and gastracker modules use
// status/message/result; the proxy module answers in JSON-RPC form with an
// optional error object and no status.
type rpcResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Explorer is an Etherscan-compatible API client.
type Explorer struct {
	baseURL string
	apiKey  string
	c       *client
}

// NewExplorer creates an explorer client for baseURL (e.g. https://api.etherscan.io/api).
func NewExplorer(baseURL, apiKey string, opts ...Option) *Explorer {
	return &Explorer{
		baseURL: baseURL,
		apiKey:  apiKey,
		c:       newClient("explorer", opts),
	}
}

// call issues module/action with params and returns the raw result.
func (e *Explorer) call(ctx context.Context, module, action string, params url.Values) (json.RawMessage, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("module", module)
	q.Set("action", action)
	if e.apiKey != "" {
		q.Set("apikey", e.apiKey)
	}

	build := func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+q.Encode(), nil)
	}

	var resp rpcResponse
	if err := e.c.do(ctx, action, build, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}
	if module == "proxy" {
		// Rate limit and key errors still arrive as status 0 here
		if resp.Status == statusNotOK {
			return nil, fmt.Errorf("explorer %s: %s", resp.Message, string(resp.Result))
		}
	} else if resp.Status != statusOK {
		if resp.Message == msgNoTransactions {
			return nil, errEmptyResult
		}
		return nil, fmt.Errorf("explorer %s: %s", resp.Message, string(resp.Result))
	}

	if len(resp.Result) == 0 || bytes.Equal(resp.Result, []byte("null")) {
		return nil, errEmptyResult
	}
	return resp.Result, nil
}

// Transactions returns the normal transactions of address in
// [startBlock, endBlock], newest first.
func (e *Explorer) Transactions(ctx context.Context, address string, startBlock, endBlock uint64) []Transaction {
	params := url.Values{}
	params.Set("address", address)
	params.Set("startblock", strconv.FormatUint(startBlock, 10))
	params.Set("endblock", strconv.FormatUint(endBlock, 10))
	params.Set("sort", "desc")

	return e.transactionList(ctx, "txlist", params)
}

// InternalTransactions returns the internal transactions of a block.
func (e *Explorer) InternalTransactions(ctx context.Context, block uint64) []Transaction {
	n := strconv.FormatUint(block, 10)
	params := url.Values{}
	params.Set("startblock", n)
	params.Set("endblock", n)
	params.Set("sort", "desc")

	return e.transactionList(ctx, "txlistinternal", params)
}

func (e *Explorer) transactionList(ctx context.Context, action string, params url.Values) []Transaction {
	raw, err := e.call(ctx, "account", action, params)
	if errors.Is(err, errEmptyResult) {
		return []Transaction{}
	}
	if err != nil {
		e.c.fail(action, err)
		return []Transaction{}
	}

	var txs []Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		e.c.fail(action, fmt.Errorf("decode result: %w", err))
		return []Transaction{}
	}
	return txs
}

// GasOracle returns the current gas oracle snapshot.
func (e *Explorer) GasOracle(ctx context.Context) (*GasOracle, bool) {
	const action = "gasoracle"

	raw, err := e.call(ctx, "gastracker", action, nil)
	if err != nil {
		e.c.fail(action, err)
		return nil, false
	}

	var res gasOracleResult
	if err := json.Unmarshal(raw, &res); err != nil {
		e.c.fail(action, fmt.Errorf("decode result: %w", err))
		return nil, false
	}

	oracle, err := parseGasOracle(res)
	if err != nil {
		e.c.fail(action, err)
		return nil, false
	}
	return oracle, true
}

// LatestBlockNumber returns the chain head.
func (e *Explorer) LatestBlockNumber(ctx context.Context) (uint64, bool) {
	const action = "eth_blockNumber"

	raw, err := e.call(ctx, "proxy", action, nil)
	if err != nil {
		e.c.fail(action, err)
		return 0, false
	}

	var n hexutil.Uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		e.c.fail(action, fmt.Errorf("decode block number: %w", err))
		return 0, false
	}
	return uint64(n), true
}

// BlockByNumber returns a block with full transaction objects.
func (e *Explorer) BlockByNumber(ctx context.Context, number uint64) (*Block, bool) {
	const action = "eth_getBlockByNumber"

	params := url.Values{}
	params.Set("tag", hexutil.EncodeUint64(number))
	params.Set("boolean", "true")

	raw, err := e.call(ctx, "proxy", action, params)
	if err != nil {
		e.c.fail(action, err)
		return nil, false
	}

	var block Block
	if err := json.Unmarshal(raw, &block); err != nil {
		e.c.fail(action, fmt.Errorf("decode block: %w", err))
		return nil, false
	}
	return &block, true
}

// TransactionReceipt returns the receipt for txHash.
func (e *Explorer) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, bool) {
	const action = "eth_getTransactionReceipt"

	params := url.Values{}
	params.Set("txhash", strings.ToLower(txHash))

	raw, err := e.call(ctx, "proxy", action, params)
	if err != nil {
		e.c.fail(action, err)
		return nil, false
	}

	var receipt Receipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		e.c.fail(action, fmt.Errorf("decode receipt: %w", err))
		return nil, false
	}
	return &receipt, true
}
