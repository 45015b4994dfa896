// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package mev

import (
	"context"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/mevscope/gateway"
)

// Event signatures
const (
	TopicSwap        = "0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822" // Swap(address,uint256,uint256,uint256,uint256,address)
	TopicSwapV3      = "0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67" // Swap(address,address,int256,int256,uint160,uint128,int24)
	TopicLiquidation = "0xe413a321e8681d831f4dbccbca790d2952b56f977908e45be37335533e005286" // LiquidationCall
)

const (
	// MaxReceipts bounds receipt lookups per inspected block.
	MaxReceipts        = 25
	receiptConcurrency = 5
)

// ErrBlockUnavailable is returned when the explorer cannot supply the block.
var ErrBlockUnavailable = errors.New("block unavailable")

// Sandwich is a frontrun/victim/backrun triple on one pool.
type Sandwich struct {
	Frontrun string `json:"frontrun"`
	Victim   string `json:"victim"`
	Backrun  string `json:"backrun"`
	Attacker string `json:"attacker"`
	Pool     string `json:"pool"`
}

// BlockReport is the result of inspecting one block.
type BlockReport struct {
	Number               uint64        `json:"number"`
	Hash                 string        `json:"hash"`
	Timestamp            time.Time     `json:"timestamp"`
	Miner                string        `json:"miner"`
	BaseFee              float64       `json:"baseFee"` // gwei
	GasUsed              uint64        `json:"gasUsed"`
	GasLimit             uint64        `json:"gasLimit"`
	TransactionCount     int           `json:"transactionCount"`
	InternalTransactions int           `json:"internalTransactions"`
	Inspected            int           `json:"inspected"`
	Candidates           []Transaction `json:"candidates"`
	Sandwiches           []Sandwich    `json:"sandwiches"`
}

// InspectBlock classifies the first MaxReceipts transactions of a block. When
// latest is set number is ignored and the chain head is used.
//
// Receipts upgrade the random placeholder category where the logs show a
// pattern: adjacent swaps on one pool by the same sender around a victim are
// a sandwich, multiple swaps in one transaction an arbitrage, and a
// LiquidationCall event a liquidation.
func (a *Analyzer) InspectBlock(ctx context.Context, number uint64, latest bool) (*BlockReport, error) {
	if latest {
		head, ok := a.explorer.LatestBlockNumber(ctx)
		if !ok {
			return nil, ErrBlockUnavailable
		}
		number = head
	}

	block, ok := a.explorer.BlockByNumber(ctx, number)
	if !ok {
		return nil, ErrBlockUnavailable
	}

	txs := block.Transactions
	if len(txs) > MaxReceipts {
		txs = txs[:MaxReceipts]
	}

	receipts := make([]*gateway.Receipt, len(txs))
	var internal []gateway.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(receiptConcurrency)
	g.Go(func() error {
		internal = a.explorer.InternalTransactions(gctx, number)
		return nil
	})
	for i, tx := range txs {
		g.Go(func() error {
			if r, ok := a.explorer.TransactionReceipt(gctx, tx.Hash); ok {
				receipts[i] = r
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &BlockReport{
		Number:               uint64(block.Number),
		Hash:                 block.Hash,
		Timestamp:            time.Unix(int64(block.Timestamp), 0).UTC(),
		Miner:                block.Miner,
		GasUsed:              uint64(block.GasUsed),
		GasLimit:             uint64(block.GasLimit),
		TransactionCount:     len(block.Transactions),
		InternalTransactions: len(internal),
		Inspected:            len(txs),
		Candidates:           []Transaction{},
		Sandwiches:           findSandwiches(txs, receipts),
	}
	if block.BaseFeePerGas != nil {
		report.BaseFee = gateway.WeiToGweiFloat(block.BaseFeePerGas.ToInt().String())
	}

	legs := make(map[string]Type)
	for _, s := range report.Sandwiches {
		legs[s.Frontrun] = TypeFrontrun
		legs[s.Backrun] = TypeBackrun
	}

	for i, tx := range txs {
		raw := toRaw(block, tx, receipts[i])
		mt, ok := a.Classify(raw)
		if !ok {
			continue
		}
		if receipts[i] == nil {
			mt.Status = StatusPending
		} else if typ, ok := patternType(receipts[i].Logs); ok {
			mt.Type = typ
		}
		if typ, ok := legs[tx.Hash]; ok {
			mt.Type = typ
		}
		report.Candidates = append(report.Candidates, mt)
	}

	return report, nil
}

// toRaw converts a block transaction to the explorer txlist shape so the
// block path shares Classify with the searcher path.
func toRaw(block *gateway.Block, tx gateway.BlockTransaction, r *gateway.Receipt) gateway.Transaction {
	raw := gateway.Transaction{
		BlockNumber: strconv.FormatUint(uint64(block.Number), 10),
		TimeStamp:   strconv.FormatUint(uint64(block.Timestamp), 10),
		Hash:        tx.Hash,
		Nonce:       strconv.FormatUint(uint64(tx.Nonce), 10),
		BlockHash:   block.Hash,
		From:        tx.From,
		To:          tx.To,
		Value:       bigString(tx.Value),
		Gas:         strconv.FormatUint(uint64(tx.Gas), 10),
		GasPrice:    bigString(tx.GasPrice),
		GasUsed:     strconv.FormatUint(uint64(tx.Gas), 10),
		Input:       tx.Input,
		IsError:     "0",
	}
	if r != nil {
		raw.GasUsed = strconv.FormatUint(uint64(r.GasUsed), 10)
		if r.EffectiveGasPrice != nil {
			raw.GasPrice = bigString(r.EffectiveGasPrice)
		}
		if r.Status != 1 {
			raw.IsError = "1"
		}
	}
	return raw
}

func bigString(b *hexutil.Big) string {
	if b == nil {
		return "0"
	}
	return (*big.Int)(b).String()
}

func patternType(logs []gateway.Log) (Type, bool) {
	swaps := 0
	for _, l := range logs {
		if len(l.Topics) == 0 {
			continue
		}
		switch l.Topics[0] {
		case TopicLiquidation:
			return TypeLiquidation, true
		case TopicSwap, TopicSwapV3:
			swaps++
		}
	}
	if swaps >= 2 {
		return TypeArbitrage, true
	}
	return "", false
}

func findSandwiches(txs []gateway.BlockTransaction, receipts []*gateway.Receipt) []Sandwich {
	out := []Sandwich{}
	for i := 1; i+1 < len(txs); i++ {
		front, victim, back := receipts[i-1], receipts[i], receipts[i+1]
		if front == nil || victim == nil || back == nil {
			continue
		}
		if front.Status != 1 || victim.Status != 1 || back.Status != 1 {
			continue
		}
		if !strings.EqualFold(front.From, back.From) || strings.EqualFold(front.From, victim.From) {
			continue
		}

		p1, p2, p3 := swapPool(front.Logs), swapPool(victim.Logs), swapPool(back.Logs)
		if p1 == "" || !strings.EqualFold(p1, p2) || !strings.EqualFold(p2, p3) {
			continue
		}

		out = append(out, Sandwich{
			Frontrun: txs[i-1].Hash,
			Victim:   txs[i].Hash,
			Backrun:  txs[i+1].Hash,
			Attacker: front.From,
			Pool:     p1,
		})
		i += 2
	}
	return out
}

func swapPool(logs []gateway.Log) string {
	for _, l := range logs {
		if len(l.Topics) > 0 && (l.Topics[0] == TopicSwap || l.Topics[0] == TopicSwapV3) {
			return l.Address
		}
	}
	return ""
}
