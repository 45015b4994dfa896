// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package mev_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/mevscope/gateway"
	"github.com/luxfi/mevscope/gateway/gatewaytest"
	"github.com/luxfi/mevscope/mev"
	"github.com/luxfi/mevscope/synth"
)

const (
	searcherA = "0x1000000000000000000000000000000000000001"
	searcherB = "0x2000000000000000000000000000000000000002"
)

// stubExplorer is an in-memory mev.Explorer.
type stubExplorer struct {
	mu       sync.Mutex
	head     uint64
	hasHead  bool
	txs      map[string][]gateway.Transaction
	windows  map[string][2]uint64
	blocks   map[uint64]*gateway.Block
	receipts map[string]*gateway.Receipt
	internal map[uint64][]gateway.Transaction
}

func newStub() *stubExplorer {
	return &stubExplorer{
		txs:      map[string][]gateway.Transaction{},
		windows:  map[string][2]uint64{},
		blocks:   map[uint64]*gateway.Block{},
		receipts: map[string]*gateway.Receipt{},
		internal: map[uint64][]gateway.Transaction{},
	}
}

func (s *stubExplorer) setHead(n uint64) {
	s.head, s.hasHead = n, true
}

func (s *stubExplorer) LatestBlockNumber(context.Context) (uint64, bool) {
	return s.head, s.hasHead
}

func (s *stubExplorer) Transactions(_ context.Context, address string, start, end uint64) []gateway.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[address] = [2]uint64{start, end}
	return s.txs[address]
}

func (s *stubExplorer) BlockByNumber(_ context.Context, n uint64) (*gateway.Block, bool) {
	b, ok := s.blocks[n]
	return b, ok
}

func (s *stubExplorer) TransactionReceipt(_ context.Context, hash string) (*gateway.Receipt, bool) {
	r, ok := s.receipts[hash]
	return r, ok
}

func (s *stubExplorer) InternalTransactions(_ context.Context, block uint64) []gateway.Transaction {
	return s.internal[block]
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newAnalyzer(ex mev.Explorer, opts ...mev.Option) *mev.Analyzer {
	gen := synth.New(42, synth.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	base := []mev.Option{
		mev.WithLogger(quietLogger()),
		mev.WithSearchers([]string{searcherA, searcherB}),
	}
	return mev.NewAnalyzer(ex, gen, append(base, opts...)...)
}

func complexTxs(prefix, to string, n int) []gateway.Transaction {
	txs := make([]gateway.Transaction, n)
	for i := range txs {
		txs[i] = gatewaytest.ComplexTx(fmt.Sprintf("0x%s%02d", prefix, i), to, 18_000_000)
	}
	return txs
}

func TestAnalyzeHeadUnavailable(t *testing.T) {
	a := newAnalyzer(newStub())

	res := a.Analyze(context.Background(), 7)
	require.Len(t, res.Transactions, 7)
	assert.Equal(t, 0, res.Real)
	assert.False(t, res.Live())
	for i, tx := range res.Transactions {
		assert.Equal(t, fmt.Sprintf("tx-%d", i), tx.ID)
	}
}

func TestAnalyzeNonPositiveLimit(t *testing.T) {
	a := newAnalyzer(newStub())
	assert.Empty(t, a.Analyze(context.Background(), 0).Transactions)
	assert.NotNil(t, a.Analyze(context.Background(), -1).Transactions)
}

func TestAnalyzeScanWindow(t *testing.T) {
	tests := []struct {
		name  string
		head  uint64
		start uint64
	}{
		{"deep chain", 18_000_000, 17_999_000},
		{"young chain clamps at zero", 400, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := newStub()
			stub.setHead(tt.head)
			newAnalyzer(stub).Analyze(context.Background(), 10)
			assert.Equal(t, [2]uint64{tt.start, tt.head}, stub.windows[searcherA])
			assert.Equal(t, [2]uint64{tt.start, tt.head}, stub.windows[searcherB])
		})
	}
}

func TestAnalyzeRealThenPadding(t *testing.T) {
	stub := newStub()
	stub.setHead(18_000_100)
	stub.txs[searcherA] = complexTxs("a", mev.UniswapV3Router, 10)
	stub.txs[searcherB] = append(complexTxs("b", mev.CurveExchange, 2), gatewaytest.PlainTx("0xplain", 18_000_000))

	res := newAnalyzer(stub).Analyze(context.Background(), 10)
	require.Len(t, res.Transactions, 10)

	// 5 per searcher: A contributes 5, B contributes 2 (the plain tx is filtered).
	assert.Equal(t, 7, res.Real)
	assert.True(t, res.Live())
	for i := 0; i < 5; i++ {
		assert.Equal(t, fmt.Sprintf("tx-0xa%02d", i), res.Transactions[i].ID)
		assert.Equal(t, "Uniswap V3", res.Transactions[i].Protocol)
	}
	assert.Equal(t, "Curve", res.Transactions[5].Protocol)
	assert.Equal(t, "Curve", res.Transactions[6].Protocol)
	assert.Equal(t, "tx-0", res.Transactions[7].ID)
	for _, tx := range res.Transactions {
		assert.NotEqual(t, "0xplain", tx.Hash)
	}
}

func TestAnalyzeLimitBelowSearcherCount(t *testing.T) {
	stub := newStub()
	stub.setHead(18_000_100)
	stub.txs[searcherA] = complexTxs("a", mev.UniswapV3Router, 3)

	res := newAnalyzer(stub).Analyze(context.Background(), 1)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, 0, res.Real, "limit/2 == 0 takes nothing per searcher")
}

func TestClassifyHeuristicFilters(t *testing.T) {
	a := newAnalyzer(newStub())
	base := gatewaytest.PlainTx("0x01", 1)

	_, ok := a.Classify(base)
	assert.False(t, ok, "at every threshold the transaction is not MEV")

	tests := []struct {
		name   string
		mutate func(*gateway.Transaction)
	}{
		{"gas used", func(tx *gateway.Transaction) { tx.GasUsed = "200001" }},
		{"gas price", func(tx *gateway.Transaction) { tx.GasPrice = "50000000001" }},
		{"input", func(tx *gateway.Transaction) { tx.Input = "0x" + strings.Repeat("a", 99) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := base
			tt.mutate(&tx)
			got, ok := a.Classify(tx)
			require.True(t, ok)
			assert.Equal(t, "tx-0x01", got.ID)
			assert.Equal(t, "Ethereum", got.Chain)
			assert.Equal(t, mev.StatusSuccess, got.Status)
		})
	}
}

func TestClassifyNeverEmitsBelowThresholds(t *testing.T) {
	a := newAnalyzer(newStub())
	for _, gasUsed := range []string{"0", "21000", "199999", "200000"} {
		for _, gasPrice := range []string{"0", "1000000000", "49999999999", "50000000000"} {
			for _, n := range []int{0, 50, 98} {
				tx := gatewaytest.PlainTx("0x02", 1)
				tx.GasUsed, tx.GasPrice, tx.Input = gasUsed, gasPrice, "0x"+strings.Repeat("f", n)
				_, ok := a.Classify(tx)
				assert.False(t, ok, "gasUsed=%s gasPrice=%s input=%d", gasUsed, gasPrice, n+2)
			}
		}
	}
}

func TestClassifyComplexInput(t *testing.T) {
	a := newAnalyzer(newStub())
	tx := gatewaytest.ComplexTx("0xabc", strings.ToLower(mev.SushiswapRouter), 18_000_000)
	tx.IsError = "1"

	got, ok := a.Classify(tx)
	require.True(t, ok)
	assert.Equal(t, "SushiSwap", got.Protocol, "lookup is case-insensitive")
	assert.Equal(t, "MEV transaction on SushiSwap", got.Description)
	assert.Contains(t, mev.Categories, got.Type)
	assert.GreaterOrEqual(t, got.Profit, 0.0)
	assert.Less(t, got.Profit, float64(mev.MaxProfit))
	assert.Equal(t, 30.0, got.GasPrice)
	assert.Equal(t, uint64(150000), got.GasUsed)
	assert.Equal(t, mev.StatusFailed, got.Status)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), got.Timestamp)
	assert.Equal(t, "18000000", got.BlockNumber)
}

func TestClassifyWithoutComplexInput(t *testing.T) {
	a := newAnalyzer(newStub())
	tx := gatewaytest.PlainTx("0x03", 1)
	tx.GasUsed = "300000"
	tx.To = mev.UniswapV3Router

	got, ok := a.Classify(tx)
	require.True(t, ok)
	assert.Equal(t, mev.TypeUnknown, got.Type)
	assert.Equal(t, mev.UnknownProtocol, got.Protocol)
	assert.Zero(t, got.Profit)
}

func TestClassifySkipsMalformed(t *testing.T) {
	a := newAnalyzer(newStub())
	for name, mutate := range map[string]func(*gateway.Transaction){
		"gasUsed":   func(tx *gateway.Transaction) { tx.GasUsed = "lots" },
		"gasPrice":  func(tx *gateway.Transaction) { tx.GasPrice = "0x10" },
		"timeStamp": func(tx *gateway.Transaction) { tx.TimeStamp = "" },
	} {
		t.Run(name, func(t *testing.T) {
			tx := gatewaytest.ComplexTx("0x04", mev.CurveExchange, 1)
			mutate(&tx)
			_, ok := a.Classify(tx)
			assert.False(t, ok)
		})
	}
}

func TestDexTableLookup(t *testing.T) {
	assert.Equal(t, "Uniswap V3", mev.DefaultDexes.Lookup(strings.ToUpper(mev.UniswapV3Router)))
	assert.Equal(t, "PancakeSwap", mev.DefaultDexes.Lookup(" "+mev.PancakeSwapRouter+" "))
	assert.Equal(t, mev.UnknownProtocol, mev.DefaultDexes.Lookup("0xdeadbeef"))

	custom := mev.NewDexTable(map[string]string{"Balancer": "0xBA12222222228d8Ba445958a75a0704d566BF2C8"})
	a := newAnalyzer(newStub(), mev.WithDexTable(custom))
	got, ok := a.Classify(gatewaytest.ComplexTx("0x05", "0xba12222222228d8ba445958a75a0704d566bf2c8", 1))
	require.True(t, ok)
	assert.Equal(t, "Balancer", got.Protocol)
}

func TestParseTimeframe(t *testing.T) {
	tf, err := mev.ParseTimeframe("")
	require.NoError(t, err)
	assert.Equal(t, 24, tf.Hours())

	tf, err = mev.ParseTimeframe("6h")
	require.NoError(t, err)
	assert.Equal(t, 6, tf.Hours())

	_, err = mev.ParseTimeframe("7d")
	assert.ErrorIs(t, err, mev.ErrInvalidTimeframe)
}
