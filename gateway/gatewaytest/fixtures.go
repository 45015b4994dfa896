// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package gatewaytest

import (
	"strconv"
	"strings"

	"github.com/luxfi/mevscope/gateway"
)

// ComplexInput is calldata longer than the 100 character complexity threshold.
var ComplexInput = "0x38ed1739" + strings.Repeat("0", 128)

// ComplexTx returns a transaction that passes the MEV heuristic on input length.
func ComplexTx(hash, to string, block uint64) gateway.Transaction {
	return gateway.Transaction{
		BlockNumber: strconv.FormatUint(block, 10),
		TimeStamp:   "1700000000",
		Hash:        hash,
		From:        "0xdafea492d9c6733ae3d56b7ed1adb60692c98bc5",
		To:          to,
		Value:       "1000000000000000000",
		Gas:         "300000",
		GasPrice:    "30000000000",
		GasUsed:     "150000",
		Input:       ComplexInput,
		IsError:     "0",
	}
}

// PlainTx returns a transaction that fails every MEV heuristic check.
func PlainTx(hash string, block uint64) gateway.Transaction {
	return gateway.Transaction{
		BlockNumber: strconv.FormatUint(block, 10),
		TimeStamp:   "1700000000",
		Hash:        hash,
		From:        "0xdafea492d9c6733ae3d56b7ed1adb60692c98bc5",
		To:          "0x1111111111111111111111111111111111111111",
		Value:       "0",
		Gas:         "21000",
		GasPrice:    "50000000000",
		GasUsed:     "200000",
		Input:       "0x",
		IsError:     "0",
	}
}
