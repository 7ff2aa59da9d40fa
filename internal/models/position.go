package models

import "time"

// Position — open position snapshot owned by the trading service.
// The core only reads these, it never mutates them directly.
type Position struct {
	AccountID  string
	Symbol     string
	Side       Side
	Volume     float64
	OpenPrice  float64
	Unrealized float64
	Updated    time.Time
}
