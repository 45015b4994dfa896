// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/mevscope/api"
)

func dialHub(t *testing.T, f *fixture, origin string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go f.server.Hub().Run(ctx)

	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)

	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) api.WebSocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg api.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHubJoinPublishLeave(t *testing.T) {
	f := newFixture(t)
	conn := dialHub(t, f, frontend)
	hub := f.server.Hub()

	require.NoError(t, conn.WriteJSON(map[string]string{"event": api.EventJoinMEV}))
	ack := readMessage(t, conn)
	assert.Equal(t, api.MessageJoined, ack.Type)
	assert.Equal(t, api.RoomMEV, ack.Room)
	assert.NotZero(t, ack.Timestamp)

	assert.Equal(t, 1, hub.Stats()["clients"])
	assert.Equal(t, 1, hub.Stats()[api.RoomMEV])
	assert.Equal(t, 0, hub.Stats()[api.RoomArbitrage])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WSConnections))

	hub.Publish(api.RoomArbitrage, "arbitrage-opportunity", "ignored")
	hub.Publish(api.RoomMEV, "mev-transaction", map[string]string{"hash": "0xabc"})
	msg := readMessage(t, conn)
	assert.Equal(t, "mev-transaction", msg.Type)
	assert.Equal(t, api.RoomMEV, msg.Room)
	assert.Equal(t, map[string]interface{}{"hash": "0xabc"}, msg.Data)

	require.NoError(t, conn.WriteJSON(map[string]string{"event": api.EventLeaveMEV}))
	ack = readMessage(t, conn)
	assert.Equal(t, api.MessageLeft, ack.Type)
	assert.Equal(t, api.RoomMEV, ack.Room)
	assert.Equal(t, 0, hub.Stats()[api.RoomMEV])
}

func TestHubRejectsUnknownEvents(t *testing.T) {
	f := newFixture(t)
	conn := dialHub(t, f, "")

	require.NoError(t, conn.WriteJSON(map[string]string{"event": "join-everything"}))
	msg := readMessage(t, conn)
	assert.Equal(t, api.MessageError, msg.Type)
	assert.Contains(t, msg.Data, "join-everything")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	msg = readMessage(t, conn)
	assert.Equal(t, api.MessageError, msg.Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"event": api.EventJoinArbitrage}))
	msg = readMessage(t, conn)
	assert.Equal(t, api.MessageJoined, msg.Type)
	assert.Equal(t, api.RoomArbitrage, msg.Room)
}

func TestHubDisconnectCleansRooms(t *testing.T) {
	f := newFixture(t)
	conn := dialHub(t, f, frontend)
	hub := f.server.Hub()

	require.NoError(t, conn.WriteJSON(map[string]string{"event": api.EventJoinArbitrage}))
	readMessage(t, conn)
	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		s := hub.Stats()
		return s["clients"] == 0 && s[api.RoomArbitrage] == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.WSConnections))
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	f := newFixture(t)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
