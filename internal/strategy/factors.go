package strategy

import "PremiumScreener/internal/model"

// Component maxima of the composite score.
const (
	MaxRSIScore    = 30
	MaxBBScore     = 30
	MaxVolumeScore = 25
	MaxATRScore    = 15
	MinStrength    = 10 + 10 + 10 + 5
	MaxStrength    = MaxRSIScore + MaxBBScore + MaxVolumeScore + MaxATRScore
)

// scoreRSI rewards deeper oversold readings.
func scoreRSI(rsi float64) int {
	switch {
	case rsi < 25:
		return 30
	case rsi < 30:
		return 25
	case rsi < 35:
		return 20
	default:
		return 10
	}
}

// scoreBBPosition rewards prices pressed against the lower band.
func scoreBBPosition(pos float64) int {
	switch {
	case pos < 0.15:
		return 30
	case pos < 0.25:
		return 25
	case pos < 0.35:
		return 20
	default:
		return 10
	}
}

// scoreVolumeSurge rewards capitulation volume.
func scoreVolumeSurge(surge float64) int {
	switch {
	case surge > 2.0:
		return 25
	case surge > 1.5:
		return 20
	case surge > 1.2:
		return 15
	default:
		return 10
	}
}

// scoreATRPct rewards richer option premiums.
func scoreATRPct(atrPct float64) int {
	switch {
	case atrPct > 3.0:
		return 15
	case atrPct > 2.0:
		return 12
	case atrPct > 1.5:
		return 10
	default:
		return 5
	}
}

// Score returns the composite signal strength in [MinStrength, MaxStrength].
// It depends only on RSI, BB position, volume surge and ATR%.
func Score(s *model.Snapshot) int {
	return scoreRSI(s.RSI14) + scoreBBPosition(s.BBPosition) + scoreVolumeSurge(s.VolSurge) + scoreATRPct(s.ATRPct)
}
