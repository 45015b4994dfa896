// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package dashboard

import (
	"time"

	"github.com/luxfi/mevscope/mev"
)

// Market is the market overview bundle.
type Market struct {
	MarketData     mev.Stats        `json:"marketData"`
	Protocols      []ProtocolMetric `json:"protocols"`
	TimeSeriesData []SeriesPoint    `json:"timeSeriesData"`
}

// ProtocolMetric summarizes MEV activity on one protocol.
type ProtocolMetric struct {
	Name         string  `json:"name"`
	Volume       float64 `json:"volume"`
	Profit       float64 `json:"profit"`
	Transactions float64 `json:"transactions"`
	MarketShare  float64 `json:"marketShare"`
	Trend        string  `json:"trend"`
	Change       float64 `json:"change"`
}

// SeriesPoint is one hourly market bucket.
type SeriesPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	Volume       float64   `json:"volume"`
	Profit       float64   `json:"profit"`
	Transactions float64   `json:"transactions"`
}

// Leaderboard ranks searchers.
type Leaderboard struct {
	Searchers []Searcher       `json:"searchers"`
	Stats     LeaderboardStats `json:"stats"`
}

// Searcher is a leaderboard entry.
type Searcher struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	TotalProfit      float64   `json:"totalProfit"`
	TotalVolume      float64   `json:"totalVolume"`
	SuccessRate      float64   `json:"successRate"`
	TransactionCount float64   `json:"transactionCount"`
	AvgProfit        float64   `json:"avgProfit"`
	Rank             int       `json:"rank"`
	Change           float64   `json:"change"`
	Strategies       []string  `json:"strategies"`
	LastActive       time.Time `json:"lastActive"`
	WinStreak        int       `json:"winStreak"`
}

// LeaderboardStats aggregates the leaderboard.
type LeaderboardStats struct {
	TotalSearchers int     `json:"totalSearchers"`
	TotalProfit    float64 `json:"totalProfit"`
	AvgProfit      float64 `json:"avgProfit"`
	TopProfit      float64 `json:"topProfit"`
	ActiveToday    int     `json:"activeToday"`
}

// DexEfficiency is the DEX efficiency bundle.
type DexEfficiency struct {
	Dexes   []DexMetric `json:"dexes"`
	Metrics DexMetrics  `json:"metrics"`
}

// DexMetric scores one DEX. EfficiencyScore is clamped to [0,100].
type DexMetric struct {
	Name             string  `json:"name"`
	Volume           float64 `json:"volume"`
	MEVExposure      float64 `json:"mevExposure"`
	EfficiencyScore  float64 `json:"efficiencyScore"`
	AvgSlippage      float64 `json:"avgSlippage"`
	GasEfficiency    float64 `json:"gasEfficiency"`
	LiquidityDepth   float64 `json:"liquidityDepth"`
	TransactionCount float64 `json:"transactionCount"`
	SuccessRate      float64 `json:"successRate"`
	MEVProtection    float64 `json:"mevProtection"`
	Trend            string  `json:"trend"`
	Change           float64 `json:"change"`
}

// DexMetrics aggregates DexMetric values.
type DexMetrics struct {
	TotalDEXs       int     `json:"totalDEXs"`
	AvgEfficiency   float64 `json:"avgEfficiency"`
	BestEfficiency  float64 `json:"bestEfficiency"`
	WorstEfficiency float64 `json:"worstEfficiency"`
	TotalVolume     float64 `json:"totalVolume"`
	TotalMEV        float64 `json:"totalMEV"`
}

// CrossChain is the cross-chain bundle.
type CrossChain struct {
	Chains  []ChainMetric `json:"chains"`
	Flows   []Flow        `json:"flows"`
	Metrics ChainMetrics  `json:"metrics"`
}

// ChainMetric summarizes one chain.
type ChainMetric struct {
	Name             string  `json:"name"`
	Symbol           string  `json:"symbol"`
	Volume           float64 `json:"volume"`
	MEVVolume        float64 `json:"mevVolume"`
	TransactionCount float64 `json:"transactionCount"`
	AvgGasPrice      float64 `json:"avgGasPrice"`
	AvgBlockTime     float64 `json:"avgBlockTime"`
	TotalValue       float64 `json:"totalValue"`
	MEVOpportunities float64 `json:"mevOpportunities"`
	CrossChainFlows  float64 `json:"crossChainFlows"`
	Efficiency       float64 `json:"efficiency"`
	Trend            string  `json:"trend"`
	Change           float64 `json:"change"`
}

// Flow is value bridged between two distinct chains.
type Flow struct {
	FromChain     string    `json:"fromChain"`
	ToChain       string    `json:"toChain"`
	Volume        float64   `json:"volume"`
	Opportunities float64   `json:"opportunities"`
	AvgProfit     float64   `json:"avgProfit"`
	Bridge        string    `json:"bridge"`
	Timestamp     time.Time `json:"timestamp"`
}

// ChainMetrics aggregates ChainMetric values.
type ChainMetrics struct {
	TotalChains   int     `json:"totalChains"`
	TotalVolume   float64 `json:"totalVolume"`
	TotalMEV      float64 `json:"totalMEV"`
	TotalFlows    float64 `json:"totalFlows"`
	AvgEfficiency float64 `json:"avgEfficiency"`
	BestChain     string  `json:"bestChain"`
}
