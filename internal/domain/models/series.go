package models

import "time"

// MinIndicatorPoints is the smallest close series accepted for the RSI field.
const MinIndicatorPoints = 20

// RawSeries is a close series normalized to oldest-first.
type RawSeries struct {
	Closes []float64
	AsOf   time.Time
}

// Len returns the number of closes.
func (s RawSeries) Len() int { return len(s.Closes) }

// Latest returns the newest close.
func (s RawSeries) Latest() (float64, bool) {
	if len(s.Closes) == 0 {
		return 0, false
	}
	return s.Closes[len(s.Closes)-1], true
}

// Earliest returns the oldest close.
func (s RawSeries) Earliest() (float64, bool) {
	if len(s.Closes) == 0 {
		return 0, false
	}
	return s.Closes[0], true
}

// Quote is a spot price from a quote-chart provider.
type Quote struct {
	Price float64
	AsOf  time.Time
}

// Observation is a single dated scalar (economic series point, fund NAV).
type Observation struct {
	Value float64
	AsOf  time.Time
}
