// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package arbitrage produces synthetic cross-DEX arbitrage opportunities and
// evaluates a single trade.
package arbitrage

import (
	"errors"
	"fmt"
	"math"

	"github.com/luxfi/mevscope/synth"
)

// Defaults applied to unset parameters.
const (
	DefaultAmount   = 1000
	DefaultGasPrice = 25
	DefaultSlippage = 0.5

	// OpportunityCount is the number of opportunities per listing.
	OpportunityCount = 10

	gasUnitCost = 0.0001
)

// Dexes are the venues opportunities are drawn from.
var Dexes = []string{"Uniswap V3", "SushiSwap", "PancakeSwap", "Curve", "Balancer"}

// ErrInvalidParams is returned for negative or non-finite parameters.
var ErrInvalidParams = errors.New("invalid arbitrage parameters")

// Risk of an opportunity.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Params are the trade inputs. Nil fields take their defaults.
type Params struct {
	TokenA   string   `json:"tokenA"`
	TokenB   string   `json:"tokenB"`
	Amount   *float64 `json:"amount"`
	GasPrice *float64 `json:"gasPrice"`
	Slippage *float64 `json:"slippage"`
}

// Calculation is the evaluation of one trade.
type Calculation struct {
	BuyPrice         float64 `json:"buyPrice"`
	SellPrice        float64 `json:"sellPrice"`
	ProfitPercentage float64 `json:"profitPercentage"`
	EstimatedProfit  float64 `json:"estimatedProfit"`
	GasCost          float64 `json:"gasCost"`
	SlippageCost     float64 `json:"slippageCost"`
	NetProfit        float64 `json:"netProfit"`
	IsProfitable     bool    `json:"isProfitable"`
}

// Opportunity is a synthetic cross-DEX price gap.
type Opportunity struct {
	ID               string  `json:"id"`
	TokenA           string  `json:"tokenA,omitempty"`
	TokenB           string  `json:"tokenB,omitempty"`
	BuyDex           string  `json:"buyDex"`
	SellDex          string  `json:"sellDex"`
	BuyPrice         float64 `json:"buyPrice"`
	SellPrice        float64 `json:"sellPrice"`
	PriceDifference  float64 `json:"priceDifference"`
	ProfitPercentage float64 `json:"profitPercentage"`
	EstimatedProfit  float64 `json:"estimatedProfit"`
	GasCost          float64 `json:"gasCost"`
	NetProfit        float64 `json:"netProfit"`
	MinAmount        float64 `json:"minAmount"`
	MaxAmount        float64 `json:"maxAmount"`
	Risk             Risk    `json:"risk"`
}

// Calculator prices trades using a synthetic price source.
type Calculator struct {
	gen *synth.Generator
}

// NewCalculator creates a calculator.
func NewCalculator(gen *synth.Generator) *Calculator {
	return &Calculator{gen: gen}
}

type resolved struct {
	amount, gasPrice, slippage float64
}

func (p Params) resolve() (resolved, error) {
	r := resolved{DefaultAmount, DefaultGasPrice, DefaultSlippage}
	fields := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"amount", p.Amount, &r.amount},
		{"gasPrice", p.GasPrice, &r.gasPrice},
		{"slippage", p.Slippage, &r.slippage},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		v := *f.src
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return r, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidParams, f.name)
		}
		*f.dst = v
	}
	return r, nil
}

// Calculate evaluates one trade. netProfit is exactly
// estimatedProfit - gasCost - slippageCost.
func (c *Calculator) Calculate(p Params) (Calculation, error) {
	r, err := p.resolve()
	if err != nil {
		return Calculation{}, err
	}
	return c.calculate(r), nil
}

func (c *Calculator) calculate(r resolved) Calculation {
	buy := c.gen.Uniform(1000, 2000)
	sell := buy * (1 + c.gen.Float()*0.1)
	pct := (sell - buy) / buy * 100

	calc := Calculation{
		BuyPrice:         buy,
		SellPrice:        sell,
		ProfitPercentage: pct,
		EstimatedProfit:  r.amount * (pct / 100),
		GasCost:          r.gasPrice * gasUnitCost,
		SlippageCost:     r.amount * (r.slippage / 100),
	}
	calc.NetProfit = calc.EstimatedProfit - calc.GasCost - calc.SlippageCost
	calc.IsProfitable = calc.NetProfit > 0
	return calc
}

// Opportunities returns OpportunityCount synthetic opportunities for p. A
// zero amount takes the default. Buy and sell venues always differ.
func (c *Calculator) Opportunities(p Params) ([]Opportunity, error) {
	if p.Amount != nil && *p.Amount == 0 {
		p.Amount = nil
	}
	r, err := p.resolve()
	if err != nil {
		return nil, err
	}

	out := make([]Opportunity, OpportunityCount)
	for i := range out {
		calc := c.calculate(r)
		venues := c.gen.Sample(Dexes, 2)
		out[i] = Opportunity{
			ID:               fmt.Sprintf("opp-%d", i),
			TokenA:           p.TokenA,
			TokenB:           p.TokenB,
			BuyDex:           venues[0],
			SellDex:          venues[1],
			BuyPrice:         calc.BuyPrice,
			SellPrice:        calc.SellPrice,
			PriceDifference:  calc.SellPrice - calc.BuyPrice,
			ProfitPercentage: calc.ProfitPercentage,
			EstimatedProfit:  calc.EstimatedProfit,
			GasCost:          calc.GasCost,
			NetProfit:        calc.NetProfit,
			MinAmount:        c.gen.Uniform(1000, 10000),
			MaxAmount:        c.gen.Uniform(10000, 100000),
			Risk:             riskOf(calc.NetProfit),
		}
	}
	return out, nil
}

func riskOf(net float64) Risk {
	switch {
	case net > 50:
		return RiskLow
	case net > 10:
		return RiskMedium
	default:
		return RiskHigh
	}
}
