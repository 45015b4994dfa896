// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package mev classifies searcher transactions as possible MEV and
// aggregates them into statistics and trends.
package mev

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/mevscope/config"
	"github.com/luxfi/mevscope/gateway"
	"github.com/luxfi/mevscope/observability"
	"github.com/luxfi/mevscope/synth"
)

// Heuristic thresholds
const (
	ScanWindow         = 1000   // blocks behind head
	ComplexInputLength = 100    // hex characters of calldata
	HighGasUsed        = 200000 // gas
	MaxProfit          = 10000
	DefaultLimit       = 50
	StatsSampleSize    = 100
	fetchConcurrency   = 4
	defaultChain       = "Ethereum"
)

// HighGasPriceWei is 50 gwei.
var HighGasPriceWei = big.NewInt(50_000_000_000)

// Explorer is the subset of the explorer gateway used by the analyzer.
type Explorer interface {
	LatestBlockNumber(ctx context.Context) (uint64, bool)
	Transactions(ctx context.Context, address string, startBlock, endBlock uint64) []gateway.Transaction
	BlockByNumber(ctx context.Context, number uint64) (*gateway.Block, bool)
	TransactionReceipt(ctx context.Context, txHash string) (*gateway.Receipt, bool)
	InternalTransactions(ctx context.Context, block uint64) []gateway.Transaction
}

// Analyzer classifies searcher transactions, padding with synthetic data.
type Analyzer struct {
	explorer  Explorer
	gen       *synth.Generator
	searchers []string
	dexes     DexTable
	metrics   *observability.Metrics
	log       logrus.FieldLogger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSearchers sets the searcher allow-list.
func WithSearchers(addrs []string) Option {
	return func(a *Analyzer) {
		if len(addrs) > 0 {
			a.searchers = append([]string(nil), addrs...)
		}
	}
}

// WithDexTable overrides the router table.
func WithDexTable(t DexTable) Option {
	return func(a *Analyzer) {
		a.dexes = t
	}
}

// WithMetrics records synthetic fallbacks.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Analyzer) {
		a.log = l
	}
}

// NewAnalyzer creates an analyzer reading from explorer.
func NewAnalyzer(explorer Explorer, gen *synth.Generator, opts ...Option) *Analyzer {
	a := &Analyzer{
		explorer:  explorer,
		gen:       gen,
		searchers: append([]string(nil), config.DefaultSearchers...),
		dexes:     DefaultDexes,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithField("component", "mev")
	return a
}

// Searchers returns the allow-list size.
func (a *Analyzer) Searchers() int {
	return len(a.searchers)
}

// Analyze returns exactly limit transactions: classified searcher activity
// from the last ScanWindow blocks first, then synthetic padding. If the
// chain head is unavailable the whole result is synthetic.
func (a *Analyzer) Analyze(ctx context.Context, limit int) Result {
	if limit <= 0 {
		return Result{Transactions: []Transaction{}}
	}

	latest, ok := a.explorer.LatestBlockNumber(ctx)
	if !ok {
		a.metrics.RecordFallback("mev")
		return Result{Transactions: MockTransactions(a.gen, limit)}
	}

	start := uint64(0)
	if latest > ScanWindow {
		start = latest - ScanWindow
	}
	perSearcher := limit / len(a.searchers)

	batches := make([][]Transaction, len(a.searchers))
	if perSearcher > 0 {
		var g errgroup.Group
		g.SetLimit(fetchConcurrency)
		for i, addr := range a.searchers {
			g.Go(func() error {
				txs := a.explorer.Transactions(ctx, addr, start, latest)
				if len(txs) > perSearcher {
					txs = txs[:perSearcher]
				}
				for _, tx := range txs {
					if mt, ok := a.Classify(tx); ok {
						batches[i] = append(batches[i], mt)
					}
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]Transaction, 0, limit)
	for _, b := range batches {
		out = append(out, b...)
	}
	classified := len(out)

	if classified < limit {
		if classified == 0 {
			a.metrics.RecordFallback("mev")
		}
		out = append(out, MockTransactions(a.gen, limit-classified)...)
	}
	classified = min(classified, limit)

	a.log.WithFields(logrus.Fields{
		"head":  latest,
		"real":  classified,
		"limit": limit,
	}).Debug("Classified searcher transactions")

	return Result{Transactions: out[:limit], Real: classified}
}

// Classify applies the MEV heuristic to one explorer transaction. It reports
// false for transactions that are not MEV-like or cannot be parsed.
//
// Calldata longer than ComplexInputLength selects a protocol from the DEX
// table and draws profit and category at random. The random draw is a
// placeholder: no signal in the transaction determines either value.
func (a *Analyzer) Classify(tx gateway.Transaction) (Transaction, bool) {
	gasUsed, err := strconv.ParseUint(tx.GasUsed, 10, 64)
	if err != nil {
		a.skip(tx, fmt.Errorf("gasUsed: %w", err))
		return Transaction{}, false
	}
	gasPrice, ok := new(big.Int).SetString(tx.GasPrice, 10)
	if !ok {
		a.skip(tx, fmt.Errorf("gasPrice %q", tx.GasPrice))
		return Transaction{}, false
	}

	complexInput := len(tx.Input) > ComplexInputLength
	if !complexInput && gasUsed <= HighGasUsed && gasPrice.Cmp(HighGasPriceWei) <= 0 {
		return Transaction{}, false
	}

	secs, err := strconv.ParseInt(tx.TimeStamp, 10, 64)
	if err != nil {
		a.skip(tx, fmt.Errorf("timeStamp: %w", err))
		return Transaction{}, false
	}

	typ, protocol, profit := TypeUnknown, UnknownProtocol, 0.0
	if complexInput {
		protocol = a.dexes.Lookup(tx.To)
		profit = a.gen.Uniform(0, MaxProfit)
		typ = Categories[a.gen.Intn(len(Categories))]
	}

	status := StatusFailed
	if tx.IsError == "0" {
		status = StatusSuccess
	}

	return Transaction{
		ID:          "tx-" + tx.Hash,
		Hash:        tx.Hash,
		Type:        typ,
		Profit:      profit,
		GasUsed:     gasUsed,
		GasPrice:    gateway.WeiToGweiFloat(tx.GasPrice),
		Timestamp:   time.Unix(secs, 0).UTC(),
		Chain:       defaultChain,
		Protocol:    protocol,
		Description: "MEV transaction on " + protocol,
		Status:      status,
		From:        tx.From,
		To:          tx.To,
		Value:       tx.Value,
		BlockNumber: tx.BlockNumber,
	}, true
}

func (a *Analyzer) skip(tx gateway.Transaction, err error) {
	a.log.WithFields(logrus.Fields{"hash": tx.Hash, "error": err}).Debug("Skipping unparseable transaction")
}
