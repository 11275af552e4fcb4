package model

import "time"

// MinBars is the shortest series the indicator engine accepts (SMA-200).
const MinBars = 200

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

