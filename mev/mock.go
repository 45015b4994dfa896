// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package mev

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/luxfi/mevscope/synth"
)

const (
	mockBaseBlock = 18000000
	weiPerEther   = 1_000_000_000_000_000_000
)

var (
	mockProtocols = []string{"Uniswap", "SushiSwap", "PancakeSwap", "Curve"}
	mockStatuses  = []string{string(StatusSuccess), string(StatusFailed), string(StatusPending)}
)

// MockTransactions returns n synthetic transactions.
func MockTransactions(g *synth.Generator, n int) []Transaction {
	if n <= 0 {
		return []Transaction{}
	}

	txs := make([]Transaction, n)
	for i := range txs {
		txs[i] = Transaction{
			ID:          fmt.Sprintf("tx-%d", i),
			Hash:        g.Hash(),
			Type:        Categories[g.Intn(len(Categories))],
			Profit:      g.Uniform(0, MaxProfit),
			GasUsed:     uint64(100000 + g.Intn(500000)),
			GasPrice:    g.Uniform(20, 220),
			Timestamp:   g.Within(24 * time.Hour).UTC(),
			Chain:       defaultChain,
			Protocol:    g.Pick(mockProtocols),
			Description: fmt.Sprintf("MEV transaction %d", i),
			Status:      Status(g.Pick(mockStatuses)),
			From:        g.Address(),
			To:          g.Address(),
			Value:       strconv.FormatUint(g.WeiBelow(weiPerEther), 10),
			BlockNumber: strconv.Itoa(mockBaseBlock + g.Intn(1000)),
		}
	}
	return txs
}

// MockStats returns synthetic aggregate statistics.
func MockStats(g *synth.Generator) Stats {
	return Stats{
		TotalVolume:      g.Uniform(1_250_000, 1_750_000),
		TotalProfit:      g.Uniform(85000, 110000),
		AvgProfit:        g.Uniform(125, 175),
		SuccessRate:      g.Uniform(78, 93),
		TransactionCount: int(math.Floor(g.Uniform(12500, 17500))),
		ActiveSearchers:  int(math.Floor(g.Uniform(45, 65))),
	}
}
