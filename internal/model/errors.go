package model

import "errors"

var (
	// ErrTickerSourceUnavailable is returned when the ticker list cannot be fetched.
	ErrTickerSourceUnavailable = errors.New("ticker source unavailable")
	// ErrInsufficientData is returned when a series is too short or malformed.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDataFetch is returned when a market data request fails.
	ErrDataFetch = errors.New("data fetch failed")
	// ErrIndicatorComputation is returned when an indicator cannot be derived.
	ErrIndicatorComputation = errors.New("indicator computation failed")
)
