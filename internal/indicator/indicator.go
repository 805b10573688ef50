// Package indicator computes the technical indicators fed to the judgment
// oracle from a daily closing-price series.
package indicator

import (
	"errors"

	"github.com/markcheno/go-talib"
)

// Standard indicator parameters
const (
	RSIPeriod  = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// minBars is the shortest series from which both indicators have a settled
// trailing value (MACD needs slow + signal periods of warmup).
const minBars = MACDSlow + MACDSignal

// ErrNotComputable signals that the price series is too short for the
// indicator lookback windows.
var ErrNotComputable = errors.New("insufficient data to compute indicators")

// Snapshot holds the trailing indicator values for one symbol
type Snapshot struct {
	RSI       float64
	MACDDiff  float64
	LastClose float64
}

// Compute derives momentum and trend indicators from a daily close series.
// It uses each series' trailing value: RSI(14) and the MACD(12,26,9)
// histogram (MACD line minus signal line).
func Compute(closes []float64) (*Snapshot, error) {
	if len(closes) < minBars {
		return nil, ErrNotComputable
	}

	rsi := talib.Rsi(closes, RSIPeriod)
	_, _, hist := talib.Macd(closes, MACDFast, MACDSlow, MACDSignal)

	return &Snapshot{
		RSI:       rsi[len(rsi)-1],
		MACDDiff:  hist[len(hist)-1],
		LastClose: closes[len(closes)-1],
	}, nil
}
