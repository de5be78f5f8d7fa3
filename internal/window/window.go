// Package window holds the bounded price history the moving-average policy
// reasons over.
package window

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// DefaultSize is the number of ticks averaged when no size is configured.
const DefaultSize = 250

// ErrNotWarm is returned when a moving average is requested before the window is full.
var ErrNotWarm = errors.New("price window is not warm")

// PriceWindow is a fixed-capacity FIFO ring buffer of the most recent prices.
// It also tracks the extrema of every price ever appended, not just the held ones.
//
// A PriceWindow is owned by a single policy instance and is not safe for
// concurrent use.
type PriceWindow struct {
	buf  []float64
	next int
	n    int

	// ceiling excludes implausible spikes from the observed extrema; 0 disables it.
	ceiling     float64
	min, max    float64
	hasExtremes bool
}

// Option configures a PriceWindow.
type Option func(*PriceWindow)

// WithPriceCeiling ignores prices above ceiling when tracking ObservedMin/ObservedMax.
func WithPriceCeiling(ceiling float64) Option {
	return func(w *PriceWindow) {
		w.ceiling = ceiling
	}
}

// New creates an empty window holding up to size prices.
func New(size int, opts ...Option) (*PriceWindow, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be > 0, got %d", size)
	}
	w := &PriceWindow{buf: make([]float64, size)}
	for _, opt := range opts {
		opt(w)
	}
	if w.ceiling < 0 {
		return nil, fmt.Errorf("price ceiling must be >= 0, got %v", w.ceiling)
	}
	return w, nil
}

// Append inserts price, evicting the oldest entry once the window is at capacity.
func (w *PriceWindow) Append(price float64) {
	w.buf[w.next] = price
	w.next = (w.next + 1) % len(w.buf)
	if w.n < len(w.buf) {
		w.n++
	}

	if w.ceiling > 0 && price > w.ceiling {
		return
	}
	if !w.hasExtremes {
		w.min, w.max = price, price
		w.hasExtremes = true
		return
	}
	if price < w.min {
		w.min = price
	}
	if price > w.max {
		w.max = price
	}
}

// Seed bulk-loads historical prices in order; equivalent to repeated Append.
func (w *PriceWindow) Seed(prices []float64) {
	for _, p := range prices {
		w.Append(p)
	}
}

// Len is the number of prices currently held.
func (w *PriceWindow) Len() int { return w.n }

// Cap is the configured window size.
func (w *PriceWindow) Cap() int { return len(w.buf) }

// IsWarm reports whether the window is full.
func (w *PriceWindow) IsWarm() bool { return w.n == len(w.buf) }

// MovingAverage is the arithmetic mean of the held prices.
func (w *PriceWindow) MovingAverage() (float64, error) {
	if !w.IsWarm() {
		return 0, ErrNotWarm
	}
	return stat.Mean(w.buf, nil), nil
}

// ObservedMin returns the lowest in-band price ever appended.
func (w *PriceWindow) ObservedMin() (float64, bool) {
	return w.min, w.hasExtremes
}

// ObservedMax returns the highest in-band price ever appended.
func (w *PriceWindow) ObservedMax() (float64, bool) {
	return w.max, w.hasExtremes
}

// Values returns the held prices, oldest first.
func (w *PriceWindow) Values() []float64 {
	out := make([]float64, 0, w.n)
	start := 0
	if w.n == len(w.buf) {
		start = w.next
	}
	for i := 0; i < w.n; i++ {
		out = append(out, w.buf[(start+i)%len(w.buf)])
	}
	return out
}
