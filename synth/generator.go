// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

// Package synth generates the synthetic data served whenever live upstream
// data is missing. All randomness flows through one Generator so a fixed seed
// reproduces every response.
package synth

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// Generator is a concurrency-safe source of synthetic values.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New creates a generator. A zero seed seeds from the clock.
func New(seed int64, opts ...Option) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		rnd: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now returns the generator clock.
func (g *Generator) Now() time.Time {
	return g.now()
}

// Float returns a uniform value in [0,1).
func (g *Generator) Float() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Float64()
}

// Uniform returns a uniform value in [lo,hi).
func (g *Generator) Uniform(lo, hi float64) float64 {
	return lo + g.Float()*(hi-lo)
}

// Intn returns a uniform int in [0,n). n must be positive.
func (g *Generator) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(n)
}

// Pick returns a uniform element of options.
func (g *Generator) Pick(options []string) string {
	return options[g.Intn(len(options))]
}

// Sample returns k distinct elements of options in random order.
func (g *Generator) Sample(options []string, k int) []string {
	out := append([]string(nil), options...)
	g.mu.Lock()
	g.rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	g.mu.Unlock()
	if k > len(out) {
		k = len(out)
	}
	return out[:k]
}

// Trend returns up half the time, otherwise down or stable evenly.
func (g *Generator) Trend() string {
	if g.Float() > 0.5 {
		return "up"
	}
	if g.Float() > 0.5 {
		return "down"
	}
	return "stable"
}

// Change returns a signed percentage in [-width/2, width/2).
func (g *Generator) Change(width float64) float64 {
	return (g.Float() - 0.5) * width
}

// Within returns a time up to d before now.
func (g *Generator) Within(d time.Duration) time.Time {
	return g.now().Add(-time.Duration(g.Float() * float64(d)))
}

// Hash returns a 0x-prefixed keccak256 hash of random bytes.
func (g *Generator) Hash() string {
	return "0x" + hex.EncodeToString(g.keccak())
}

// Address returns an EIP-55 checksummed random address.
func (g *Generator) Address() string {
	return common.BytesToAddress(g.keccak()[12:]).Hex()
}

// WeiBelow returns a random base-unit amount in [0,max).
func (g *Generator) WeiBelow(max uint64) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Uint64N(max)
}

func (g *Generator) keccak() []byte {
	var seed [32]byte
	g.mu.Lock()
	for i := 0; i < len(seed); i += 8 {
		binary.LittleEndian.PutUint64(seed[i:], g.rnd.Uint64())
	}
	g.mu.Unlock()

	h := sha3.NewLegacyKeccak256()
	h.Write(seed[:])
	return h.Sum(nil)
}

// Round rounds v to places decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Clamp limits v to [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
