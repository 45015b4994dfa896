// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/luxfi/mevscope/arbitrage"
	"github.com/luxfi/mevscope/mev"
	"github.com/luxfi/mevscope/protection"
)

// Source markers for MEV endpoints
const (
	SourceLive = "Etherscan API with MEV analysis"
	SourceMock = "Mock data (Etherscan API unavailable)"
)

const (
	maxLimit     = 1000
	maxBodyBytes = 1 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":      time.Since(s.started).Seconds(),
		"environment": s.config.Environment,
		"websocket":   s.hub.Stats(),
	})
}

// MEV

func (s *Server) handleMEVTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := mev.DefaultLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be an integer between 1 and %d", maxLimit))
			return
		}
		limit = n
	}

	res := s.svc.MEV.Analyze(r.Context(), limit)

	typ, chain := q.Get("type"), q.Get("chain")
	txs := make([]mev.Transaction, 0, len(res.Transactions))
	for _, tx := range res.Transactions {
		if typ != "" && string(tx.Type) != typ {
			continue
		}
		if chain != "" && !strings.EqualFold(tx.Chain, chain) {
			continue
		}
		txs = append(txs, tx)
	}

	source := SourceMock
	if res.Live() {
		source = SourceLive
	}
	s.writeList(w, txs, len(txs), source)
}

func (s *Server) handleMEVStats(w http.ResponseWriter, r *http.Request) {
	stats, live := s.svc.MEV.Stats(r.Context())
	source := SourceMock
	if live {
		source = SourceLive
	}
	s.writeData(w, stats, source)
}

func (s *Server) handleMEVTrends(w http.ResponseWriter, r *http.Request) {
	tf, err := mev.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "timeframe must be 6h or 24h")
		return
	}
	s.writeData(w, s.svc.MEV.Trends(tf), "")
}

func (s *Server) handleMEVBlock(w http.ResponseWriter, r *http.Request) {
	param := mux.Vars(r)["block"]

	var (
		number uint64
		latest = param == "latest"
	)
	if !latest {
		n, err := strconv.ParseUint(param, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "block must be a decimal number or latest")
			return
		}
		number = n
	}

	report, err := s.svc.MEV.InspectBlock(r.Context(), number, latest)
	if errors.Is(err, mev.ErrBlockUnavailable) {
		s.writeError(w, http.StatusServiceUnavailable, "Block data unavailable")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to inspect block")
		return
	}
	s.writeData(w, report, SourceLive)
}

// Arbitrage

func (s *Server) handleArbitrageOpportunities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := arbitrage.Params{TokenA: q.Get("tokenA"), TokenB: q.Get("tokenB")}

	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"amount", &p.Amount},
		{"gasPrice", &p.GasPrice},
		{"slippage", &p.Slippage},
	} {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			s.writeError(w, http.StatusBadRequest, f.name+" must be a number")
			return
		}
		*f.dst = &n
	}

	opps, err := s.svc.Arbitrage.Opportunities(p)
	if err != nil {
		s.writeArbitrageError(w, err)
		return
	}
	s.writeList(w, opps, len(opps), "")
}

func (s *Server) handleArbitrageCalculate(w http.ResponseWriter, r *http.Request) {
	var p arbitrage.Params
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	calc, err := s.svc.Arbitrage.Calculate(p)
	if err != nil {
		s.writeArbitrageError(w, err)
		return
	}
	s.writeData(w, calc, "")
}

func (s *Server) writeArbitrageError(w http.ResponseWriter, err error) {
	if errors.Is(err, arbitrage.ErrInvalidParams) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, "Failed to calculate arbitrage")
}

// Protection

func (s *Server) handleProtectionAnalyze(w http.ResponseWriter, r *http.Request) {
	var req protection.Request
	if err := decodeBody(r, &req); err != nil {
		if errors.Is(err, protection.ErrInvalidNumber) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeData(w, protection.Analyze(req), "")
}

// Gas

func (s *Server) handleGasCurrent(w http.ResponseWriter, r *http.Request) {
	cur, source := s.svc.Gas.Current(r.Context())
	s.writeData(w, cur, source)
}

func (s *Server) handleGasPredictions(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.svc.Gas.Predictions(), "")
}

func (s *Server) handleGasHistory(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.svc.Gas.History(), "")
}

func (s *Server) handleGasMEVImpact(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.svc.Gas.MEVImpact(), "")
}

// Dashboard

func (s *Server) handleDashboardMarket(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.svc.Dashboard.Market(), "")
}

func (s *Server) handleDashboardLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.svc.Dashboard.Leaderboard(), "")
}

func (s *Server) handleDashboardDexEfficiency(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.svc.Dashboard.DexEfficiency(), "")
}

func (s *Server) handleDashboardCrossChain(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, s.svc.Dashboard.CrossChain(), "")
}

// handlePoolTransactions returns the raw address to swaps map without an
// envelope.
func (s *Server) handlePoolTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Dashboard.PoolTransactions(r.Context()))
}

func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}
