// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package gateway

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// Transaction is an Etherscan txlist record. Numeric fields are decimal
// strings in base units, as returned upstream.
type Transaction struct {
	BlockNumber       string `json:"blockNumber"`
	TimeStamp         string `json:"timeStamp"`
	Hash              string `json:"hash"`
	Nonce             string `json:"nonce"`
	BlockHash         string `json:"blockHash"`
	TransactionIndex  string `json:"transactionIndex"`
	From              string `json:"from"`
	To                string `json:"to"`
	Value             string `json:"value"`
	Gas               string `json:"gas"`
	GasPrice          string `json:"gasPrice"`
	GasUsed           string `json:"gasUsed"`
	CumulativeGasUsed string `json:"cumulativeGasUsed"`
	Input             string `json:"input"`
	ContractAddress   string `json:"contractAddress"`
	Confirmations     string `json:"confirmations"`
	IsError           string `json:"isError"`
	TxReceiptStatus   string `json:"txreceipt_status"`
}

// GasOracle is a parsed gastracker snapshot. Prices are in gwei.
type GasOracle struct {
	LastBlock       uint64
	SafeGasPrice    decimal.Decimal
	ProposeGasPrice decimal.Decimal
	FastGasPrice    decimal.Decimal
	SuggestBaseFee  decimal.Decimal
	GasUsedRatio    []float64
}

// gasOracleResult is the raw gastracker payload.
type gasOracleResult struct {
	LastBlock       string `json:"LastBlock"`
	SafeGasPrice    string `json:"SafeGasPrice"`
	ProposeGasPrice string `json:"ProposeGasPrice"`
	FastGasPrice    string `json:"FastGasPrice"`
	SuggestBaseFee  string `json:"suggestBaseFee"`
	GasUsedRatio    string `json:"gasUsedRatio"`
}

// Block is an eth_getBlockByNumber result with full transactions.
type Block struct {
	Number        hexutil.Uint64     `json:"number"`
	Hash          string             `json:"hash"`
	ParentHash    string             `json:"parentHash"`
	Timestamp     hexutil.Uint64     `json:"timestamp"`
	Miner         string             `json:"miner"`
	GasUsed       hexutil.Uint64     `json:"gasUsed"`
	GasLimit      hexutil.Uint64     `json:"gasLimit"`
	BaseFeePerGas *hexutil.Big       `json:"baseFeePerGas,omitempty"`
	Transactions  []BlockTransaction `json:"transactions"`
}

// BlockTransaction is a transaction embedded in a Block.
type BlockTransaction struct {
	Hash                 string         `json:"hash"`
	From                 string         `json:"from"`
	To                   string         `json:"to"`
	Value                *hexutil.Big   `json:"value"`
	Gas                  hexutil.Uint64 `json:"gas"`
	GasPrice             *hexutil.Big   `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas,omitempty"`
	Input                string         `json:"input"`
	Nonce                hexutil.Uint64 `json:"nonce"`
	TransactionIndex     hexutil.Uint64 `json:"transactionIndex"`
	Type                 hexutil.Uint64 `json:"type"`
}

// Receipt is an eth_getTransactionReceipt result.
type Receipt struct {
	TransactionHash   string         `json:"transactionHash"`
	BlockNumber       hexutil.Uint64 `json:"blockNumber"`
	From              string         `json:"from"`
	To                string         `json:"to"`
	GasUsed           hexutil.Uint64 `json:"gasUsed"`
	EffectiveGasPrice *hexutil.Big   `json:"effectiveGasPrice,omitempty"`
	Status            hexutil.Uint64 `json:"status"`
	Logs              []Log          `json:"logs"`
}

// Log is a receipt event log.
type Log struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Swap is a Uniswap V2 pool swap.
type Swap struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
	Timestamp   int64  `json:"timestamp"`
	Sender      string `json:"sender"`
	Recipient   string `json:"recipient"`
	Amount0In   string `json:"amount0In"`
	Amount1In   string `json:"amount1In"`
	Amount0Out  string `json:"amount0Out"`
	Amount1Out  string `json:"amount1Out"`
	AmountUSD   string `json:"amountUSD"`
}
