package model

// Snapshot holds the indicator values of one ticker at its most recent bar.
type Snapshot struct {
	Ticker string

	Close  float64
	Volume float64

	SMA200   float64
	AvgVol50 float64
	RSI14    float64

	BBMiddle   float64
	BBUpper    float64
	BBLower    float64
	BBPosition float64 // 0 = lower band, 1 = upper band; not clamped

	ATR14  float64
	ATRPct float64

	MACDHist float64

	Support              float64
	DistanceToSupportPct float64

	VolSurge float64
}
