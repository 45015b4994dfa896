// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package dashboard assembles the synthetic market, leaderboard, DEX and
// cross-chain bundles and the live popular-pool swap feed.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/mevscope/gateway"
	"github.com/luxfi/mevscope/mev"
	"github.com/luxfi/mevscope/observability"
	"github.com/luxfi/mevscope/synth"
)

// Pool is a tracked liquidity pool.
type Pool struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PopularPools are queried by PoolTransactions.
var PopularPools = []Pool{
	{Name: "Uniswap V2 USDC/WETH", Address: "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc"},
	{Name: "Uniswap V2 DAI/WETH", Address: "0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11"},
}

var (
	marketProtocols = []string{"Uniswap", "SushiSwap", "PancakeSwap", "Curve", "Balancer", "1inch"}

	searcherNames = []string{
		"FlashMaster", "ArbitrageKing", "MEVHunter", "ProfitSeeker", "BlockRunner",
		"GasWizard", "SlippageSlayer", "LiquidationLord", "SandwichSniper", "FrontrunFury",
		"BackrunBaron", "CrossChainCrusher", "FlashLoanFighter", "TimeBoostTitan", "JITJuggernaut",
	}
	strategies = []string{
		"Arbitrage", "Sandwich", "Frontrun", "Backrun", "Liquidation",
		"JIT", "Time Boost", "Cross-Chain", "Flash Loan",
	}

	dexNames = []string{
		"Uniswap V3", "SushiSwap", "PancakeSwap", "Curve", "Balancer",
		"1inch", "dYdX", "GMX", "Trader Joe", "Orca",
	}

	chains = []struct{ name, symbol string }{
		{"Ethereum", "ETH"},
		{"Polygon", "MATIC"},
		{"BSC", "BNB"},
		{"Arbitrum", "ARB"},
		{"Optimism", "OP"},
		{"Avalanche", "AVAX"},
		{"Fantom", "FTM"},
		{"Solana", "SOL"},
	}
	bridges = []string{"Multichain", "Stargate", "Hop", "Across", "Synapse", "Celer"}

	marketSeries = []synth.Field{
		{Name: "volume", Base: 50000, Spread: 10000, Amplitude: 20000, Period: 10},
		{Name: "profit", Base: 3000, Spread: 1000, Amplitude: 1500, Period: 8},
		{Name: "transactions", Base: 500, Spread: 100, Amplitude: 200, Period: 12},
	}
)

const (
	seriesHours = 24
	flowCount   = 20
)

// Subgraph supplies pool swaps.
type Subgraph interface {
	PoolSwaps(ctx context.Context, pool string, limit int) []gateway.Swap
}

// Service builds dashboard bundles.
type Service struct {
	subgraph Subgraph
	gen      *synth.Generator
	pools    []Pool
	metrics  *observability.Metrics
	log      logrus.FieldLogger
}

// NewService creates a dashboard service.
func NewService(subgraph Subgraph, gen *synth.Generator, metrics *observability.Metrics, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		subgraph: subgraph,
		gen:      gen,
		pools:    PopularPools,
		metrics:  metrics,
		log:      log.WithField("component", "dashboard"),
	}
}

// Market returns headline stats, per-protocol figures and a 24h series.
func (s *Service) Market() Market {
	stats := mev.MockStats(s.gen)

	protocols := make([]ProtocolMetric, len(marketProtocols))
	for i, name := range marketProtocols {
		volume := s.gen.Uniform(100000, 400000)
		protocols[i] = ProtocolMetric{
			Name:         name,
			Volume:       volume,
			Profit:       s.gen.Uniform(5000, 20000),
			Transactions: s.gen.Uniform(1000, 4000),
			MarketShare:  volume / stats.TotalVolume * 100,
			Trend:        s.gen.Trend(),
			Change:       s.gen.Change(20),
		}
	}

	points := s.gen.Series(synth.Hourly(seriesHours, marketSeries...))
	series := make([]SeriesPoint, len(points))
	for i, p := range points {
		series[i] = SeriesPoint{
			Timestamp:    p.Timestamp.UTC(),
			Volume:       p.Values["volume"],
			Profit:       p.Values["profit"],
			Transactions: p.Values["transactions"],
		}
	}

	return Market{MarketData: stats, Protocols: protocols, TimeSeriesData: series}
}

// Leaderboard returns searchers ranked by total profit.
func (s *Service) Leaderboard() Leaderboard {
	now := s.gen.Now()

	searchers := make([]Searcher, len(searcherNames))
	for i, name := range searcherNames {
		profit := s.gen.Uniform(5000, 50000)
		txCount := s.gen.Uniform(100, 1000)
		searchers[i] = Searcher{
			ID:               fmt.Sprintf("searcher-%d", i),
			Name:             name,
			Address:          s.gen.Address(),
			TotalProfit:      profit,
			TotalVolume:      s.gen.Uniform(50000, 500000),
			SuccessRate:      s.gen.Uniform(60, 95),
			TransactionCount: txCount,
			AvgProfit:        profit / txCount,
			Change:           s.gen.Change(30),
			Strategies:       s.gen.Sample(strategies, s.gen.Intn(4)+1),
			LastActive:       s.gen.Within(24 * time.Hour).UTC(),
			WinStreak:        s.gen.Intn(15) + 1,
		}
	}

	sort.SliceStable(searchers, func(i, j int) bool {
		return searchers[i].TotalProfit > searchers[j].TotalProfit
	})

	var total float64
	active := 0
	for i := range searchers {
		searchers[i].Rank = i + 1
		total += searchers[i].TotalProfit
		if now.Sub(searchers[i].LastActive) < 24*time.Hour {
			active++
		}
	}

	return Leaderboard{
		Searchers: searchers,
		Stats: LeaderboardStats{
			TotalSearchers: len(searchers),
			TotalProfit:    total,
			AvgProfit:      total / float64(len(searchers)),
			TopProfit:      searchers[0].TotalProfit,
			ActiveToday:    active,
		},
	}
}

// DexEfficiency scores each DEX by its MEV exposure.
func (s *Service) DexEfficiency() DexEfficiency {
	dexes := make([]DexMetric, len(dexNames))
	metrics := DexMetrics{
		TotalDEXs:       len(dexNames),
		BestEfficiency:  math.Inf(-1),
		WorstEfficiency: math.Inf(1),
	}

	var effSum float64
	for i, name := range dexNames {
		volume := s.gen.Uniform(100000, 1000000)
		exposure := s.gen.Uniform(0, 100)
		score := synth.Clamp(100-exposure+s.gen.Uniform(0, 20), 0, 100)

		dexes[i] = DexMetric{
			Name:             name,
			Volume:           volume,
			MEVExposure:      exposure,
			EfficiencyScore:  score,
			AvgSlippage:      s.gen.Uniform(0.1, 1),
			GasEfficiency:    s.gen.Uniform(60, 100),
			LiquidityDepth:   s.gen.Uniform(50, 100),
			TransactionCount: s.gen.Uniform(1000, 10000),
			SuccessRate:      s.gen.Uniform(80, 100),
			MEVProtection:    s.gen.Uniform(0, 100),
			Trend:            s.gen.Trend(),
			Change:           s.gen.Change(20),
		}

		metrics.TotalVolume += volume
		metrics.TotalMEV += volume * exposure / 100
		metrics.BestEfficiency = math.Max(metrics.BestEfficiency, score)
		metrics.WorstEfficiency = math.Min(metrics.WorstEfficiency, score)
		effSum += score
	}
	metrics.AvgEfficiency = effSum / float64(len(dexes))

	return DexEfficiency{Dexes: dexes, Metrics: metrics}
}

// CrossChain returns per-chain figures and random bridge flows.
func (s *Service) CrossChain() CrossChain {
	out := CrossChain{
		Chains:  make([]ChainMetric, len(chains)),
		Flows:   make([]Flow, flowCount),
		Metrics: ChainMetrics{TotalChains: len(chains)},
	}

	var effSum float64
	best := -1.0
	for i, c := range chains {
		volume := s.gen.Uniform(500000, 2000000)
		m := ChainMetric{
			Name:             c.name,
			Symbol:           c.symbol,
			Volume:           volume,
			MEVVolume:        volume * s.gen.Uniform(0.05, 0.2),
			TransactionCount: s.gen.Uniform(50000, 250000),
			AvgGasPrice:      s.gen.Uniform(10, 60),
			AvgBlockTime:     s.gen.Uniform(1, 21),
			TotalValue:       volume * s.gen.Uniform(0.8, 1.2),
			MEVOpportunities: s.gen.Uniform(100, 1000),
			CrossChainFlows:  s.gen.Uniform(50, 500),
			Efficiency:       s.gen.Uniform(60, 100),
			Trend:            s.gen.Trend(),
			Change:           s.gen.Change(30),
		}
		out.Chains[i] = m

		out.Metrics.TotalVolume += m.Volume
		out.Metrics.TotalMEV += m.MEVVolume
		out.Metrics.TotalFlows += m.CrossChainFlows
		effSum += m.Efficiency
		if m.Efficiency > best {
			best = m.Efficiency
			out.Metrics.BestChain = m.Name
		}
	}
	out.Metrics.AvgEfficiency = effSum / float64(len(chains))

	for i := range out.Flows {
		from := s.gen.Intn(len(chains))
		to := s.gen.Intn(len(chains) - 1)
		if to >= from {
			to++
		}
		out.Flows[i] = Flow{
			FromChain:     chains[from].name,
			ToChain:       chains[to].name,
			Volume:        s.gen.Uniform(10000, 110000),
			Opportunities: s.gen.Uniform(10, 100),
			AvgProfit:     s.gen.Uniform(50, 500),
			Bridge:        s.gen.Pick(bridges),
			Timestamp:     s.gen.Within(24 * time.Hour).UTC(),
		}
	}
	return out
}

// PoolTransactions queries recent swaps for every popular pool concurrently.
// Every pool address is present in the result; failed lookups map to an
// empty list.
func (s *Service) PoolTransactions(ctx context.Context) map[string][]gateway.Swap {
	var mu sync.Mutex
	out := make(map[string][]gateway.Swap, len(s.pools))

	g, gctx := errgroup.WithContext(ctx)
	for _, p := range s.pools {
		g.Go(func() error {
			swaps := s.subgraph.PoolSwaps(gctx, p.Address, gateway.DefaultSwapLimit)
			if swaps == nil {
				swaps = []gateway.Swap{}
			}
			if len(swaps) == 0 {
				s.metrics.RecordFallback("pools")
			}
			mu.Lock()
			out[p.Address] = swaps
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	s.log.WithField("pools", len(out)).Debug("Fetched pool swaps")
	return out
}
