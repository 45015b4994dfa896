// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package mev

import (
	"errors"
	"fmt"
	"time"
)

// Type categorizes an MEV transaction
type Type string

const (
	TypeArbitrage   Type = "arbitrage"
	TypeSandwich    Type = "sandwich"
	TypeFrontrun    Type = "frontrun"
	TypeBackrun     Type = "backrun"
	TypeLiquidation Type = "liquidation"
	TypeUnknown     Type = "unknown"
)

// Categories are the types assigned to classified transactions.
var Categories = []Type{TypeArbitrage, TypeSandwich, TypeFrontrun, TypeBackrun, TypeLiquidation}

// Status of a transaction
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

// Transaction is a classified or synthetic MEV transaction.
type Transaction struct {
	ID          string    `json:"id"`
	Hash        string    `json:"hash"`
	Type        Type      `json:"type"`
	Profit      float64   `json:"profit"`
	GasUsed     uint64    `json:"gasUsed"`
	GasPrice    float64   `json:"gasPrice"` // gwei
	Timestamp   time.Time `json:"timestamp"`
	Chain       string    `json:"chain"`
	Protocol    string    `json:"protocol"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Value       string    `json:"value"` // wei
	BlockNumber string    `json:"blockNumber"`
}

// Result is the output of a classification pass.
type Result struct {
	Transactions []Transaction
	// Real is the number of leading transactions classified from chain data.
	Real int
}

// Live reports whether any transaction came from chain data.
func (r Result) Live() bool {
	return r.Real > 0
}

// Stats aggregates a set of MEV transactions.
type Stats struct {
	TotalVolume      float64 `json:"totalVolume"` // ETH
	TotalProfit      float64 `json:"totalProfit"`
	AvgProfit        float64 `json:"avgProfit"`
	SuccessRate      float64 `json:"successRate"`
	TransactionCount int     `json:"transactionCount"`
	ActiveSearchers  int     `json:"activeSearchers"`
}

// TrendPoint is one hourly MEV activity bucket.
type TrendPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	Volume       float64   `json:"volume"`
	Profit       float64   `json:"profit"`
	Transactions float64   `json:"transactions"`
}

// Timeframe is a trend window.
type Timeframe string

const (
	Timeframe6h  Timeframe = "6h"
	Timeframe24h Timeframe = "24h"
)

// ErrInvalidTimeframe is returned for unsupported timeframe values.
var ErrInvalidTimeframe = errors.New("invalid timeframe")

// ParseTimeframe parses a timeframe. Empty defaults to 24h.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "":
		return Timeframe24h, nil
	case Timeframe6h, Timeframe24h:
		return Timeframe(s), nil
	default:
		return "", fmt.Errorf("%w %q: expected 6h or 24h", ErrInvalidTimeframe, s)
	}
}

// Hours returns the number of hourly buckets.
func (t Timeframe) Hours() int {
	if t == Timeframe6h {
		return 6
	}
	return 24
}
