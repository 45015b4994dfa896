// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/luxfi/mevscope/api"
	"github.com/luxfi/mevscope/dashboard"
	"github.com/luxfi/mevscope/gas"
	"github.com/luxfi/mevscope/gateway"
	"github.com/luxfi/mevscope/gateway/gatewaytest"
	"github.com/luxfi/mevscope/mev"
)

func getEnvelope(path string) (*Response, *Envelope) {
	resp, err := node.Client.Get(path)
	Expect(err).NotTo(HaveOccurred())
	env, err := resp.Envelope()
	Expect(err).NotTo(HaveOccurred(), string(resp.Body))
	return resp, env
}

func postEnvelope(path string, body interface{}) (*Response, *Envelope) {
	resp, err := node.Client.Post(path, body)
	Expect(err).NotTo(HaveOccurred())
	env, err := resp.Envelope()
	Expect(err).NotTo(HaveOccurred(), string(resp.Body))
	return resp, env
}

func expectBadRequest(resp *Response, env *Envelope) {
	Expect(resp.Status).To(Equal(http.StatusBadRequest), string(resp.Body))
	Expect(env.Success).To(BeFalse())
	Expect(env.Error).NotTo(BeEmpty())
	Expect(string(env.Data)).To(MatchJSON(`{}`))
}

var _ = Describe("Health", func() {
	It("reports OK with CORS for the frontend", func() {
		resp, err := node.Client.Get("/health")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal(frontendURL))
		Expect(resp.Header.Get(api.RequestIDHeader)).NotTo(BeEmpty())

		var body map[string]interface{}
		Expect(json.Unmarshal(resp.Body, &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("status", "OK"))
		Expect(body).To(HaveKeyWithValue("environment", "test"))
		Expect(body).To(HaveKey("uptime"))
	})

	It("answers unknown routes with a 404 envelope", func() {
		resp, env := getEnvelope("/api/does-not-exist")
		Expect(resp.Status).To(Equal(http.StatusNotFound))
		Expect(env.Success).To(BeFalse())
		Expect(env.Error).To(Equal("Not Found - /api/does-not-exist"))
	})
})

var _ = Describe("MEV transactions", func() {
	Context("when the explorer is unreachable", func() {
		BeforeEach(func() {
			node.Explorer.FailWith(http.StatusServiceUnavailable)
			DeferCleanup(node.Explorer.FailWith, 0)
		})

		It("returns exactly limit synthetic records", func() {
			for _, limit := range []int{1, 7, 50, 250} {
				_, env := getEnvelope(fmt.Sprintf("/api/mev/transactions?limit=%d", limit))
				Expect(env.Success).To(BeTrue())
				Expect(env.Source).To(Equal(api.SourceMock))
				Expect(*env.Count).To(Equal(limit))

				var txs []mev.Transaction
				Expect(json.Unmarshal(env.Data, &txs)).To(Succeed())
				Expect(txs).To(HaveLen(limit))
			}
		})
	})

	Context("when a searcher has recent activity", func() {
		BeforeEach(func() {
			node.Explorer.SetHead(headBlock)
			node.Explorer.SetTransactions(searcher,
				gatewaytest.ComplexTx("0xcomplex", mev.UniswapV3Router, headBlock-5),
				gatewaytest.PlainTx("0xplain", headBlock-4),
			)
			DeferCleanup(func() {
				node.Explorer.SetTransactions(searcher)
			})
		})

		It("classifies real transactions first and never emits plain ones", func() {
			_, env := getEnvelope("/api/mev/transactions?limit=10")
			Expect(env.Source).To(Equal(api.SourceLive))
			Expect(*env.Count).To(Equal(10))

			var txs []mev.Transaction
			Expect(json.Unmarshal(env.Data, &txs)).To(Succeed())
			Expect(txs[0].Hash).To(Equal("0xcomplex"))
			Expect(txs[0].Protocol).To(Equal("Uniswap V3"))
			for _, tx := range txs {
				Expect(tx.Hash).NotTo(Equal("0xplain"))
			}
		})
	})

	It("rejects malformed limits", func() {
		for _, q := range []string{"limit=0", "limit=1001", "limit=ten"} {
			expectBadRequest(getEnvelope("/api/mev/transactions?" + q))
		}
	})

	It("keeps stats within bounds", func() {
		_, env := getEnvelope("/api/mev/stats")
		var stats mev.Stats
		Expect(json.Unmarshal(env.Data, &stats)).To(Succeed())
		Expect(stats.SuccessRate).To(BeNumerically(">=", 0))
		Expect(stats.SuccessRate).To(BeNumerically("<=", 100))
	})
})

var _ = Describe("Gas", func() {
	It("falls back to the mock marker with every field present", func() {
		node.Explorer.SetGasOracle(nil)
		_, env := getEnvelope("/api/gas/current")
		Expect(env.Source).To(Equal(gas.SourceMock))

		var fields map[string]interface{}
		Expect(json.Unmarshal(env.Data, &fields)).To(Succeed())
		for _, k := range []string{"baseFee", "priorityFee", "maxFee", "networkStatus", "lastUpdated"} {
			Expect(fields).To(HaveKey(k))
		}
	})

	It("uses the oracle when it answers", func() {
		node.Explorer.SetGasOracle(&gatewaytest.GasOracle{
			LastBlock: "18000000", Safe: "20", Propose: "22", Fast: "30", BaseFee: "19.5", GasUsedRatio: "0.6,0.7",
		})
		DeferCleanup(func() { node.Explorer.SetGasOracle(nil) })

		_, env := getEnvelope("/api/gas/current")
		Expect(env.Source).To(Equal(gas.SourceOracle))
		var cur gas.Current
		Expect(json.Unmarshal(env.Data, &cur)).To(Succeed())
		Expect(cur.BaseFee).To(Equal(19.5))
		Expect(cur.PriorityFee).To(Equal(2.5))
		Expect(cur.MaxFee).To(Equal(30.0))
		Expect(cur.NetworkStatus).To(Equal(gas.StatusBusy))
	})
})

var _ = Describe("Protection and arbitrage", func() {
	It("scores a risky transaction as high with a 225 loss", func() {
		resp, env := postEnvelope("/api/protection/analyze", map[string]interface{}{
			"value":    20000,
			"gasPrice": 10,
			"data":     "0x" + strings.Repeat("f", 120),
		})
		Expect(resp.Status).To(Equal(http.StatusOK))

		var a map[string]interface{}
		Expect(json.Unmarshal(env.Data, &a)).To(Succeed())
		Expect(a).To(HaveKeyWithValue("vulnerability", "high"))
		Expect(a).To(HaveKeyWithValue("estimatedLoss", 225.0))
	})

	It("keeps netProfit consistent for the default parameters", func() {
		resp, env := postEnvelope("/api/arbitrage/calculate", map[string]interface{}{
			"amount": 1000, "gasPrice": 25, "slippage": 0.5,
		})
		Expect(resp.Status).To(Equal(http.StatusOK))

		var c struct {
			EstimatedProfit float64 `json:"estimatedProfit"`
			GasCost         float64 `json:"gasCost"`
			SlippageCost    float64 `json:"slippageCost"`
			NetProfit       float64 `json:"netProfit"`
		}
		Expect(json.Unmarshal(env.Data, &c)).To(Succeed())
		Expect(c.NetProfit).To(BeNumerically("~", c.EstimatedProfit-c.GasCost-c.SlippageCost, 1e-9))
	})

	It("rejects malformed amounts", func() {
		expectBadRequest(getEnvelope("/api/arbitrage/opportunities?amount=lots"))
		expectBadRequest(postEnvelope("/api/arbitrage/calculate", `{"amount":`))
	})
})

var _ = Describe("Pools", func() {
	It("is always keyed by both popular pools", func() {
		node.Subgraph.FailPair(dashboard.PopularPools[1].Address)
		node.Subgraph.SetSwaps(dashboard.PopularPools[0].Address, gateway.Swap{TxHash: "0xs1", AmountUSD: "5"})

		resp, err := node.Client.Get("/api/pools/transactions")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusOK))

		var pools map[string][]gateway.Swap
		Expect(json.Unmarshal(resp.Body, &pools)).To(Succeed())
		Expect(pools).To(HaveLen(2))
		Expect(pools[dashboard.PopularPools[0].Address]).To(HaveLen(1))
		Expect(pools).To(HaveKeyWithValue(dashboard.PopularPools[1].Address, BeEmpty()))
	})
})

var _ = Describe("WebSocket rooms", func() {
	It("acks joins and delivers published messages", func() {
		url := "ws" + strings.TrimPrefix(node.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{frontendURL}})
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		read := func() api.WebSocketMessage {
			Expect(conn.SetReadDeadline(time.Now().Add(5 * time.Second))).To(Succeed())
			var msg api.WebSocketMessage
			Expect(conn.ReadJSON(&msg)).To(Succeed())
			return msg
		}

		Expect(conn.WriteJSON(map[string]string{"event": api.EventJoinArbitrage})).To(Succeed())
		ack := read()
		Expect(ack.Type).To(Equal(api.MessageJoined))
		Expect(ack.Room).To(Equal(api.RoomArbitrage))

		node.Server.Hub().Publish(api.RoomArbitrage, "arbitrage-opportunity", map[string]int{"n": 1})
		msg := read()
		Expect(msg.Type).To(Equal("arbitrage-opportunity"))

		Expect(conn.WriteJSON(map[string]string{"event": api.EventLeaveArbitrage})).To(Succeed())
		Expect(read().Type).To(Equal(api.MessageLeft))
	})
})

var _ = Describe("Rate limiting", func() {
	It("answers 429 once the window is spent", func() {
		limited := StartNode(func(c *api.Config) {
			c.RateLimitMax = 3
			c.RateLimitWindow = time.Hour
		})
		defer limited.Stop()

		// StartNode's readiness probe consumed at least one request.
		var last *Response
		for i := 0; i < 4; i++ {
			resp, err := limited.Client.Get("/api/dashboard/market")
			Expect(err).NotTo(HaveOccurred())
			last = resp
		}
		Expect(last.Status).To(Equal(http.StatusTooManyRequests))
		env, err := last.Envelope()
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Error).To(Equal(api.RateLimitMessage))
	})
})
