// Copyright (c) 2025 Lux Partners Limited
// SPDX-License-Identifier: MIT

package synth

import (
	"math"
	"time"
)

// Field describes one generated column:
//
//	value(i) = Base + Spread*r + Amplitude*sin(i/Period)
//
// with r uniform in [0,1). A zero Period disables the sine term and a zero
// Precision leaves the value unrounded.
type Field struct {
	Name      string
	Base      float64
	Spread    float64
	Amplitude float64
	Period    float64
	Precision int
}

// Series describes a fixed-step time series.
type Series struct {
	Points int
	Step   time.Duration
	// Forward places points after now (now+Step .. now+Points*Step).
	// Otherwise the last point is now.
	Forward bool
	Fields  []Field
}

// Point is one generated sample.
type Point struct {
	Index     int
	Timestamp time.Time
	Values    map[string]float64
}

// Hourly returns a series of n hourly points ending now.
func Hourly(n int, fields ...Field) Series {
	return Series{Points: n, Step: time.Hour, Fields: fields}
}

// HourlyAhead returns a series of n hourly points starting one hour from now.
func HourlyAhead(n int, fields ...Field) Series {
	return Series{Points: n, Step: time.Hour, Forward: true, Fields: fields}
}

// Series generates s.
func (g *Generator) Series(s Series) []Point {
	if s.Points <= 0 {
		return []Point{}
	}

	now := g.now()
	points := make([]Point, s.Points)
	for i := range points {
		var ts time.Time
		if s.Forward {
			ts = now.Add(time.Duration(i+1) * s.Step)
		} else {
			ts = now.Add(-time.Duration(s.Points-1-i) * s.Step)
		}

		values := make(map[string]float64, len(s.Fields))
		for _, f := range s.Fields {
			values[f.Name] = g.value(f, i)
		}
		points[i] = Point{Index: i, Timestamp: ts, Values: values}
	}
	return points
}

func (g *Generator) value(f Field, i int) float64 {
	v := f.Base + f.Spread*g.Float()
	if f.Period != 0 {
		v += f.Amplitude * math.Sin(float64(i)/f.Period)
	}
	if f.Precision > 0 {
		v = Round(v, f.Precision)
	}
	return v
}
