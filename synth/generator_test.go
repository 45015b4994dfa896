// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package synth

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newFixed(seed int64) *Generator {
	return New(seed, WithClock(func() time.Time { return fixedNow }))
}

func TestSeedIsReproducible(t *testing.T) {
	a, b := newFixed(7), newFixed(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Float(), b.Float())
	}
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Address(), b.Address())
}

func TestUniformBounds(t *testing.T) {
	g := newFixed(1)
	for i := 0; i < 1000; i++ {
		v := g.Uniform(20, 220)
		require.GreaterOrEqual(t, v, 20.0)
		require.Less(t, v, 220.0)

		c := g.Change(30)
		require.GreaterOrEqual(t, c, -15.0)
		require.Less(t, c, 15.0)

		require.Less(t, g.WeiBelow(1_000_000_000_000_000_000), uint64(1_000_000_000_000_000_000))
	}
}

func TestPickTrendSample(t *testing.T) {
	g := newFixed(2)
	opts := []string{"a", "b", "c"}

	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		seen[g.Pick(opts)] = true
		tr := g.Trend()
		assert.Contains(t, []string{"up", "down", "stable"}, tr)
	}
	assert.Len(t, seen, 3)

	s := g.Sample(opts, 2)
	assert.Len(t, s, 2)
	assert.NotEqual(t, s[0], s[1])
	assert.Len(t, g.Sample(opts, 10), 3)
	assert.Equal(t, []string{"a", "b", "c"}, opts, "input must not be shuffled in place")
}

func TestHashAndAddress(t *testing.T) {
	g := newFixed(3)

	h := g.Hash()
	assert.Len(t, h, 66)
	assert.Equal(t, "0x", h[:2])

	addr := g.Address()
	require.True(t, common.IsHexAddress(addr))
	assert.Equal(t, common.HexToAddress(addr).Hex(), addr, "address must be checksummed")
	assert.NotEqual(t, addr, g.Address())
}

func TestWithin(t *testing.T) {
	g := newFixed(4)
	for i := 0; i < 100; i++ {
		ts := g.Within(24 * time.Hour)
		assert.False(t, ts.After(fixedNow))
		assert.True(t, ts.After(fixedNow.Add(-24*time.Hour-time.Second)))
	}
}

func TestSeriesBackward(t *testing.T) {
	g := newFixed(5)
	points := g.Series(Hourly(24,
		Field{Name: "baseFee", Base: 20, Spread: 30, Amplitude: 10, Period: 6, Precision: 2},
		Field{Name: "volume", Base: 50000, Spread: 20000},
	))

	require.Len(t, points, 24)
	assert.Equal(t, fixedNow.Add(-23*time.Hour), points[0].Timestamp)
	assert.Equal(t, fixedNow, points[23].Timestamp)

	for i, p := range points {
		assert.Equal(t, i, p.Index)

		fee := p.Values["baseFee"]
		sin := 10 * math.Sin(float64(i)/6)
		assert.GreaterOrEqual(t, fee, Round(20+sin, 2)-0.01)
		assert.LessOrEqual(t, fee, Round(50+sin, 2)+0.01)
		assert.Equal(t, Round(fee, 2), fee)

		vol := p.Values["volume"]
		assert.GreaterOrEqual(t, vol, 50000.0)
		assert.Less(t, vol, 70000.0)
	}
}

func TestSeriesForward(t *testing.T) {
	g := newFixed(6)
	points := g.Series(HourlyAhead(6, Field{Name: "x", Base: 1}))

	require.Len(t, points, 6)
	assert.Equal(t, fixedNow.Add(time.Hour), points[0].Timestamp)
	assert.Equal(t, fixedNow.Add(6*time.Hour), points[5].Timestamp)
	assert.Equal(t, 1.0, points[3].Values["x"])
}

func TestSeriesEmpty(t *testing.T) {
	points := newFixed(1).Series(Series{})
	assert.NotNil(t, points)
	assert.Empty(t, points)
}

func TestRoundClamp(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.2349, 2))
	assert.Equal(t, 1.24, Round(1.235001, 2))
	assert.Equal(t, 100.0, Clamp(117, 0, 100))
	assert.Equal(t, 0.0, Clamp(-3, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}

func TestConcurrentUse(t *testing.T) {
	g := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				g.Float()
				g.Address()
				g.Sample([]string{"a", "b"}, 1)
			}
		}()
	}
	wg.Wait()
}
