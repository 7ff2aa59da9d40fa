package models

import "time"

// Candle — one OHLCV bar.
type Candle struct {
	Open, High, Low, Close float64
	Volume                 float64
	Start, End             time.Time
}

// Tick — best bid/ask at a point in time.
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	At     time.Time
}

// Instrument — tradable-volume constraints of one symbol at the broker.
type Instrument struct {
	Symbol     string
	MinVolume  float64
	MaxVolume  float64
	VolumeStep float64
	TickSize   float64
}
