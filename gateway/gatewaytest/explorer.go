// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package gatewaytest provides in-process fakes of the explorer API and the
// Uniswap V2 subgraph for tests.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/luxfi/mevscope/gateway"
)

// RPCResponse is the Etherscan-style API response
type RPCResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// proxyResponse is the JSON-RPC form used by the proxy module.
type proxyResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result"`
}

// GasOracle holds raw gastracker fields, all decimal strings.
type GasOracle struct {
	LastBlock    string
	Safe         string
	Propose      string
	Fast         string
	BaseFee      string
	GasUsedRatio string
}

// Explorer is a fake Etherscan-compatible API.
type Explorer struct {
	*httptest.Server

	mu       sync.Mutex
	head     *uint64
	txs      map[string][]gateway.Transaction
	internal map[uint64][]gateway.Transaction
	oracle   *GasOracle
	blocks   map[uint64]gateway.Block
	receipts map[string]gateway.Receipt
	status   int
	calls    map[string]int
	apiKeys  []string
}

// NewExplorer starts a fake explorer. Callers must Close it.
func NewExplorer() *Explorer {
	e := &Explorer{
		txs:      make(map[string][]gateway.Transaction),
		internal: make(map[uint64][]gateway.Transaction),
		blocks:   make(map[uint64]gateway.Block),
		receipts: make(map[string]gateway.Receipt),
		calls:    make(map[string]int),
	}
	e.Server = httptest.NewServer(http.HandlerFunc(e.handle))
	return e
}

// URL returns the API base URL.
func (e *Explorer) URL() string {
	return e.Server.URL + "/api"
}

// SetHead sets the latest block number.
func (e *Explorer) SetHead(n uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.head = &n
}

// SetTransactions sets the txlist result for address.
func (e *Explorer) SetTransactions(address string, txs ...gateway.Transaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.txs[strings.ToLower(address)] = txs
}

// SetInternalTransactions sets the txlistinternal result for a block.
func (e *Explorer) SetInternalTransactions(block uint64, txs ...gateway.Transaction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.internal[block] = txs
}

// SetGasOracle sets the gastracker result. nil makes the action fail.
func (e *Explorer) SetGasOracle(o *GasOracle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.oracle = o
}

// SetBlock registers a block for eth_getBlockByNumber.
func (e *Explorer) SetBlock(b gateway.Block) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blocks[uint64(b.Number)] = b
}

// SetReceipt registers a receipt for eth_getTransactionReceipt.
func (e *Explorer) SetReceipt(r gateway.Receipt) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.receipts[strings.ToLower(r.TransactionHash)] = r
}

// FailWith makes every request answer with HTTP status code. Zero restores
// normal behavior.
func (e *Explorer) FailWith(code int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = code
}

// Calls returns how many requests hit action.
func (e *Explorer) Calls(action string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[action]
}

// APIKeys returns the apikey parameter of every request, in order.
func (e *Explorer) APIKeys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.apiKeys...)
}

func (e *Explorer) handle(w http.ResponseWriter, r *http.Request) {
	e.mu.Lock()
	defer e.mu.Unlock()

	q := r.URL.Query()
	module := q.Get("module")
	action := q.Get("action")
	e.calls[action]++
	e.apiKeys = append(e.apiKeys, q.Get("apikey"))

	if e.status != 0 {
		w.WriteHeader(e.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var resp interface{}
	switch module {
	case "account":
		resp = e.handleAccount(action, r)
	case "gastracker":
		resp = e.handleGasTracker(action)
	case "proxy":
		resp = e.handleProxy(action, r)
	default:
		resp = RPCResponse{Status: "0", Message: "NOTOK", Result: "Invalid module"}
	}

	json.NewEncoder(w).Encode(resp)
}

func (e *Explorer) handleAccount(action string, r *http.Request) RPCResponse {
	q := r.URL.Query()
	start, err1 := strconv.ParseUint(q.Get("startblock"), 10, 64)
	end, err2 := strconv.ParseUint(q.Get("endblock"), 10, 64)
	if err1 != nil || err2 != nil {
		return RPCResponse{Status: "0", Message: "NOTOK", Result: "Invalid block range"}
	}

	var txs []gateway.Transaction
	switch action {
	case "txlist":
		address := q.Get("address")
		if address == "" {
			return RPCResponse{Status: "0", Message: "NOTOK", Result: "Missing address"}
		}
		for _, tx := range e.txs[strings.ToLower(address)] {
			if n, err := strconv.ParseUint(tx.BlockNumber, 10, 64); err == nil && (n < start || n > end) {
				continue
			}
			txs = append(txs, tx)
		}
	case "txlistinternal":
		for b := start; b <= end; b++ {
			txs = append(txs, e.internal[b]...)
		}
	default:
		return RPCResponse{Status: "0", Message: "NOTOK", Result: "Invalid action"}
	}

	if len(txs) == 0 {
		return RPCResponse{Status: "0", Message: "No transactions found", Result: []gateway.Transaction{}}
	}
	return RPCResponse{Status: "1", Message: "OK", Result: txs}
}

func (e *Explorer) handleGasTracker(action string) RPCResponse {
	if action != "gasoracle" {
		return RPCResponse{Status: "0", Message: "NOTOK", Result: "Invalid action"}
	}
	if e.oracle == nil {
		return RPCResponse{Status: "0", Message: "NOTOK", Result: "Missing/Invalid API Key"}
	}
	return RPCResponse{Status: "1", Message: "OK", Result: map[string]string{
		"LastBlock":       e.oracle.LastBlock,
		"SafeGasPrice":    e.oracle.Safe,
		"ProposeGasPrice": e.oracle.Propose,
		"FastGasPrice":    e.oracle.Fast,
		"suggestBaseFee":  e.oracle.BaseFee,
		"gasUsedRatio":    e.oracle.GasUsedRatio,
	}}
}

func (e *Explorer) handleProxy(action string, r *http.Request) interface{} {
	q := r.URL.Query()
	switch action {
	case "eth_blockNumber":
		if e.head == nil {
			return RPCResponse{Status: "0", Message: "NOTOK", Result: "Max rate limit reached"}
		}
		return proxyResponse{JSONRPC: "2.0", ID: 83, Result: hexutil.EncodeUint64(*e.head)}
	case "eth_getBlockByNumber":
		n, err := hexutil.DecodeUint64(q.Get("tag"))
		if err != nil {
			return RPCResponse{Status: "0", Message: "NOTOK", Result: fmt.Sprintf("invalid tag: %v", err)}
		}
		block, ok := e.blocks[n]
		if !ok {
			return proxyResponse{JSONRPC: "2.0", ID: 1, Result: nil}
		}
		return proxyResponse{JSONRPC: "2.0", ID: 1, Result: block}
	case "eth_getTransactionReceipt":
		receipt, ok := e.receipts[strings.ToLower(q.Get("txhash"))]
		if !ok {
			return proxyResponse{JSONRPC: "2.0", ID: 1, Result: nil}
		}
		return proxyResponse{JSONRPC: "2.0", ID: 1, Result: receipt}
	default:
		return RPCResponse{Status: "0", Message: "NOTOK", Result: "Invalid action"}
	}
}
