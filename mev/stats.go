// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package mev

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/luxfi/mevscope/gateway"
	"github.com/luxfi/mevscope/synth"
)

var trendFields = []synth.Field{
	{Name: "volume", Base: 50000, Spread: 20000},
	{Name: "profit", Base: 3000, Spread: 1500},
	{Name: "transactions", Base: 500, Spread: 200},
}

// Summarize aggregates txs. An empty list yields zero averages.
func Summarize(txs []Transaction, activeSearchers int) Stats {
	var (
		volume    = decimal.Zero
		profit    float64
		successes int
	)
	for _, tx := range txs {
		if eth, err := gateway.WeiToEther(tx.Value); err == nil {
			volume = volume.Add(eth)
		}
		profit += tx.Profit
		if tx.Status == StatusSuccess {
			successes++
		}
	}

	stats := Stats{
		TotalVolume:      volume.InexactFloat64(),
		TotalProfit:      profit,
		TransactionCount: len(txs),
		ActiveSearchers:  activeSearchers,
	}
	if n := len(txs); n > 0 {
		stats.AvgProfit = profit / float64(n)
		stats.SuccessRate = float64(successes) / float64(n) * 100
	}
	return stats
}

// Stats classifies a StatsSampleSize batch and aggregates it. live reports
// whether any transaction came from chain data.
func (a *Analyzer) Stats(ctx context.Context) (stats Stats, live bool) {
	res := a.Analyze(ctx, StatsSampleSize)
	if len(res.Transactions) == 0 {
		a.metrics.RecordFallback("mev_stats")
		return MockStats(a.gen), false
	}
	return Summarize(res.Transactions, len(a.searchers)), res.Live()
}

// Trends returns hourly activity buckets ending now.
func (a *Analyzer) Trends(tf Timeframe) []TrendPoint {
	points := a.gen.Series(synth.Hourly(tf.Hours(), trendFields...))
	out := make([]TrendPoint, len(points))
	for i, p := range points {
		out[i] = TrendPoint{
			Timestamp:    p.Timestamp.UTC(),
			Volume:       p.Values["volume"],
			Profit:       p.Values["profit"],
			Transactions: p.Values["transactions"],
		}
	}
	return out
}
