package repository

// Market filters the instrument universe.
type Market string

const (
	MarketAll    Market = "ALL"
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// IsValidMarket returns true if m is a supported market filter.
func IsValidMarket(m Market) bool {
	switch m {
	case MarketAll, MarketKOSPI, MarketKOSDAQ:
		return true
	default:
		return false
	}
}

// DefaultMarket returns the default market filter.
func DefaultMarket() Market { return MarketAll }

// NormalizeMarket converts a raw string to a valid market filter (or default).
func NormalizeMarket(s string) Market {
	if s == "" {
		return DefaultMarket()
	}
	m := Market(s)
	if IsValidMarket(m) {
		return m
	}
	return DefaultMarket()
}

// Matches reports whether an instrument's market passes the filter.
func (m Market) Matches(instrumentMarket string) bool {
	return m == MarketAll || string(m) == instrumentMarket
}
