// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package mev

import "strings"

// Common DEX router addresses
var (
	// Uniswap V3 Router
	UniswapV3Router = "0xE592427A0AEce92De3Edee1F18E0157C05861564"
	// Sushiswap Router
	SushiswapRouter = "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F"
	// PancakeSwap Router
	PancakeSwapRouter = "0x10ED43C718714eb63d5aA57B78B54704E256024E"
	// Curve Registry Exchange
	CurveExchange = "0x99a58482BD75cbab83b27EC03CA68fF489b5788f"
)

// UnknownProtocol is reported when no DEX matches.
const UnknownProtocol = "Unknown"

// DexTable maps lowercase router addresses to protocol names.
type DexTable map[string]string

// DefaultDexes is the built-in router table.
var DefaultDexes = NewDexTable(map[string]string{
	"Uniswap V3":  UniswapV3Router,
	"SushiSwap":   SushiswapRouter,
	"PancakeSwap": PancakeSwapRouter,
	"Curve":       CurveExchange,
})

// NewDexTable builds a table from protocol name to address.
func NewDexTable(byName map[string]string) DexTable {
	t := make(DexTable, len(byName))
	for name, addr := range byName {
		t[normalize(addr)] = name
	}
	return t
}

// Lookup returns the protocol for a recipient address, matching case-insensitively.
func (t DexTable) Lookup(to string) string {
	if name, ok := t[normalize(to)]; ok {
		return name
	}
	return UnknownProtocol
}

func normalize(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
