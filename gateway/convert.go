// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package gateway

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	weiPerGwei  = decimal.New(1, 9)
	weiPerEther = decimal.New(1, 18)
)

// WeiToGwei converts a base-unit decimal string to gwei.
func WeiToGwei(wei string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(wei))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid wei amount %q: %w", wei, err)
	}
	return d.Div(weiPerGwei), nil
}

// WeiToGweiFloat converts wei to gwei, returning 0 on malformed input.
func WeiToGweiFloat(wei string) float64 {
	d, err := WeiToGwei(wei)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// WeiToEther converts a base-unit decimal string to ether.
func WeiToEther(wei string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(wei))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid wei amount %q: %w", wei, err)
	}
	return d.Div(weiPerEther), nil
}

func parseGasOracle(res gasOracleResult) (*GasOracle, error) {
	var (
		oracle GasOracle
		err    error
	)

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"SafeGasPrice", res.SafeGasPrice, &oracle.SafeGasPrice},
		{"ProposeGasPrice", res.ProposeGasPrice, &oracle.ProposeGasPrice},
		{"FastGasPrice", res.FastGasPrice, &oracle.FastGasPrice},
		{"suggestBaseFee", res.SuggestBaseFee, &oracle.SuggestBaseFee},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(strings.TrimSpace(f.raw)); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", f.name, f.raw, err)
		}
		if f.dst.IsNegative() {
			return nil, fmt.Errorf("negative %s %q", f.name, f.raw)
		}
	}

	if res.LastBlock != "" {
		if oracle.LastBlock, err = strconv.ParseUint(res.LastBlock, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid LastBlock %q: %w", res.LastBlock, err)
		}
	}

	oracle.GasUsedRatio = []float64{}
	for _, part := range strings.Split(res.GasUsedRatio, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid gasUsedRatio %q: %w", part, err)
		}
		oracle.GasUsedRatio = append(oracle.GasUsedRatio, r)
	}

	return &oracle, nil
}
