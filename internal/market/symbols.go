package market

import "strings"

// Exchange name constants
const (
	ExchangeNSE = "NSE"
	ExchangeBSE = "BSE"
)

// IsIndex reports whether the symbol is an index (Yahoo's ^ prefix)
func IsIndex(symbol string) bool {
	return strings.HasPrefix(symbol, "^")
}

// FormatSymbol normalizes a raw symbol for the upstream data source. Index
// symbols pass through unchanged; plain equity symbols are upper-cased and
// suffixed for their exchange (.NS for NSE, .BO for BSE) unless a suffix is
// already present.
func FormatSymbol(symbol, exchange string) string {
	if IsIndex(symbol) {
		return symbol
	}

	upper := strings.ToUpper(symbol)
	if strings.HasSuffix(upper, ".NS") || strings.HasSuffix(upper, ".BO") {
		return upper
	}

	if strings.EqualFold(exchange, ExchangeBSE) {
		return upper + ".BO"
	}
	return upper + ".NS"
}
