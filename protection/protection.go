// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package protection scores a proposed transaction's exposure to MEV with a
// fixed rule table and recommends protection methods.
package protection

import "fmt"

// Level is a vulnerability level.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

func (l Level) rank() int {
	switch l {
	case Medium:
		return 1
	case High:
		return 2
	default:
		return 0
	}
}

// raise returns the higher of l and floor.
func (l Level) raise(floor Level) Level {
	if floor.rank() > l.rank() {
		return floor
	}
	return l
}

// Request describes a proposed transaction.
type Request struct {
	To                   string `json:"to"`
	Data                 string `json:"data"`
	Value                Number `json:"value"`
	GasLimit             Number `json:"gasLimit"`
	GasPrice             Number `json:"gasPrice"`
	MaxFeePerGas         Number `json:"maxFeePerGas"`
	MaxPriorityFeePerGas Number `json:"maxPriorityFeePerGas"`
	Nonce                Number `json:"nonce"`
}

// Method is a protection technique.
type Method struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Effectiveness  int      `json:"effectiveness"`
	Cost           float64  `json:"cost"`
	Implementation string   `json:"implementation"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
}

// Analysis is the result of Analyze.
type Analysis struct {
	Vulnerability     Level    `json:"vulnerability"`
	RiskFactors       []string `json:"riskFactors"`
	Recommendations   []string `json:"recommendations"`
	EstimatedLoss     float64  `json:"estimatedLoss"`
	ProtectionMethods []Method `json:"protectionMethods"`
}

// Thresholds
const (
	HighValue         = 10000
	ComplexDataLength = 100
	LowGasPrice       = 20
)

type rule struct {
	match          func(Request) bool
	floor          Level
	loss           float64
	factor         string
	recommendation string
}

// rules are evaluated in order; each match can only raise the level.
var rules = []rule{
	{
		match:  func(r Request) bool { return r.Value.Float() > HighValue },
		floor:  Medium,
		loss:   50,
		factor: "High transaction value increases MEV attractiveness",
	},
	{
		match:  func(r Request) bool { return len(r.Data) > ComplexDataLength },
		floor:  High,
		loss:   100,
		factor: "Complex transaction data may indicate DEX interaction",
	},
	{
		match: func(r Request) bool {
			p := r.GasPrice.Float()
			return p > 0 && p < LowGasPrice
		},
		floor:  High,
		loss:   75,
		factor: "Low gas price makes transaction vulnerable to front-running",
	},
	{
		match:          func(r Request) bool { return !r.MaxFeePerGas.Set() || !r.MaxPriorityFeePerGas.Set() },
		floor:          Low,
		factor:         "Missing EIP-1559 gas parameters",
		recommendation: "Use EIP-1559 gas parameters for better protection",
	},
}

var levelRecommendations = map[Level][]string{
	High: {
		"Consider using Flashbots bundle for maximum protection",
		"Increase gas price to prioritize execution",
		"Use private mempool if available",
	},
	Medium: {
		"Set appropriate slippage tolerance",
		"Consider time boost for important transactions",
		"Monitor mempool for similar transactions",
	},
	Low: {
		"Transaction appears safe, but monitor for unusual activity",
		"Consider basic protection methods for peace of mind",
	},
}

// effectivenessCutoff is the exclusive minimum effectiveness per level.
var effectivenessCutoff = map[Level]int{
	High:   80,
	Medium: 70,
	Low:    50,
}

// Catalog lists the available protection methods.
var Catalog = []Method{
	{
		Name:           "Flashbots Bundle",
		Description:    "Submit transactions through Flashbots to avoid front-running",
		Effectiveness:  95,
		Cost:           0.1,
		Implementation: "Use Flashbots RPC endpoint and bundle transactions",
		Pros:           []string{"High protection against front-running", "No additional gas costs", "Widely adopted"},
		Cons:           []string{"Requires technical setup", "Not available on all chains", "May delay transaction"},
	},
	{
		Name:           "Private Mempool",
		Description:    "Use a private mempool service to keep transactions hidden",
		Effectiveness:  90,
		Cost:           0.05,
		Implementation: "Connect to private mempool RPC endpoint",
		Pros:           []string{"High privacy", "Fast execution", "Available on multiple chains"},
		Cons:           []string{"Additional cost", "Requires trusted service", "Limited availability"},
	},
	{
		Name:           "Time Boost",
		Description:    "Increase gas price to prioritize transaction execution",
		Effectiveness:  70,
		Cost:           0.2,
		Implementation: "Set higher maxFeePerGas and maxPriorityFeePerGas",
		Pros:           []string{"Simple to implement", "Immediate effect", "Works on all chains"},
		Cons:           []string{"Higher gas costs", "Not always effective", "Can be outbid"},
	},
}

// Validate rejects negative numeric fields.
func (r Request) Validate() error {
	fields := []struct {
		name string
		n    Number
	}{
		{"value", r.Value},
		{"gasLimit", r.GasLimit},
		{"gasPrice", r.GasPrice},
		{"maxFeePerGas", r.MaxFeePerGas},
		{"maxPriorityFeePerGas", r.MaxPriorityFeePerGas},
		{"nonce", r.Nonce},
	}
	for _, f := range fields {
		if f.n.Valid && f.n.Decimal.IsNegative() {
			return fmt.Errorf("%w: %s must be non-negative", ErrInvalidNumber, f.name)
		}
	}
	return nil
}

// Analyze applies the rule table to req. It is deterministic.
func Analyze(req Request) Analysis {
	a := Analysis{
		Vulnerability:     Low,
		RiskFactors:       []string{},
		Recommendations:   []string{},
		ProtectionMethods: []Method{},
	}

	for _, r := range rules {
		if !r.match(req) {
			continue
		}
		a.Vulnerability = a.Vulnerability.raise(r.floor)
		a.EstimatedLoss += r.loss
		a.RiskFactors = append(a.RiskFactors, r.factor)
		if r.recommendation != "" {
			a.Recommendations = append(a.Recommendations, r.recommendation)
		}
	}

	a.Recommendations = append(a.Recommendations, levelRecommendations[a.Vulnerability]...)

	cutoff := effectivenessCutoff[a.Vulnerability]
	for _, m := range Catalog {
		if m.Effectiveness > cutoff {
			a.ProtectionMethods = append(a.ProtectionMethods, m)
		}
	}
	return a
}
