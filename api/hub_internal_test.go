// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stoppedHub returns a hub whose Run loop has already exited.
func stoppedHub(t *testing.T) *Hub {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	h := NewHub(nil, log)

	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(exited)
	}()
	cancel()
	<-exited
	return h
}

// serverConn dials a test server and returns both ends of the connection.
func serverConn(t *testing.T) (server, remote *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(ts.Close)

	remote, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { remote.Close() })

	select {
	case server = <-conns:
	case <-time.After(5 * time.Second):
		t.Fatal("server side never upgraded")
	}
	return server, remote
}

func TestHubServeAfterStopReturns(t *testing.T) {
	h := stoppedHub(t)
	conn, remote := serverConn(t)

	returned := make(chan struct{})
	go func() {
		h.serve(conn)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("serve blocked on a stopped hub")
	}
	require.NoError(t, remote.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := remote.ReadMessage()
	assert.Error(t, err)
	assert.Empty(t, h.register, "no client queued on a stopped hub")
}

func TestHubWritePumpExitsWhenHubStops(t *testing.T) {
	h := stoppedHub(t)
	conn, remote := serverConn(t)

	// The send channel is never closed, as for a client that slipped into the
	// register buffer after Run exited.
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	returned := make(chan struct{})
	go func() {
		h.writePump(c)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("writePump blocked after the hub stopped")
	}
	require.NoError(t, remote.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := remote.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
