package models

import "time"

// Side — trade direction.
type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Signal — a scored directional trade candidate produced by the scanner.
// Immutable after creation and valid only within the cycle that produced it.
type Signal struct {
	Symbol     string
	Pattern    string
	Side       Side
	Confidence float64 // (0,100]; a zero-confidence signal is never emitted
	Entry      float64
	StopLoss   float64
	TakeProfit float64

	GeneratedAt time.Time
	Notes       string
}

// StopDistance — absolute distance between entry and stop.
func (s Signal) StopDistance() float64 {
	d := s.Entry - s.StopLoss
	if d < 0 {
		return -d
	}
	return d
}
