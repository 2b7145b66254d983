package features

import (
	"math"

	"MacroPulse/internal/domain/models"
)

// RSIPeriod is the Wilder lookback.
const RSIPeriod = 14

// TrendThresholdPct separates a stable exchange rate from a moving one, in percent.
const TrendThresholdPct = 0.5

// RSI computes the 14-period Wilder relative strength index of oldest-first closes,
// rounded half-up to one decimal. It returns false when fewer than RSIPeriod+1 closes
// are supplied.
func RSI(closes []float64) (float64, bool) {
	if len(closes) < RSIPeriod+1 {
		return 0, false
	}

	var gains, losses float64
	for i := 1; i <= RSIPeriod; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / RSIPeriod
	avgLoss := losses / RSIPeriod

	for i := RSIPeriod + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		avgGain = (avgGain*(RSIPeriod-1) + math.Max(change, 0)) / RSIPeriod
		avgLoss = (avgLoss*(RSIPeriod-1) + math.Max(-change, 0)) / RSIPeriod
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return Round1(100 - 100/(1+rs)), true
}

// Round1 rounds half-up to one decimal place.
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// PercentChange returns (latest-earliest)/earliest*100, false when undefined.
func PercentChange(earliest, latest float64) (float64, bool) {
	if earliest == 0 || math.IsNaN(earliest) || math.IsNaN(latest) ||
		math.IsInf(earliest, 0) || math.IsInf(latest, 0) {
		return 0, false
	}
	return (latest - earliest) / earliest * 100, true
}

// ClassifyTrend maps an exchange-rate percentage change to a trend. A rising rate
// means the quote currency is weakening.
func ClassifyTrend(pct float64) models.Trend {
	switch {
	case pct > TrendThresholdPct:
		return models.TrendWeakening
	case pct < -TrendThresholdPct:
		return models.TrendStrengthening
	default:
		return models.TrendStable
	}
}
