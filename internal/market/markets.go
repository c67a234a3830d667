package market

import "slices"

// Markets lists the symbols offered for signal generation.
var Markets = []string{
	// Forex
	"EUR/USD", "GBP/USD", "USD/JPY", "USD/CHF", "USD/CAD",
	"AUD/USD", "NZD/USD", "EUR/GBP", "EUR/JPY", "GBP/JPY",

	// OTC forex
	"EUR/USD-OTC", "GBP/USD-OTC", "USD/JPY-OTC", "EUR/JPY-OTC",
	"GBP/JPY-OTC", "USD/CHF-OTC", "EUR/CHF-OTC", "AUD/CAD-OTC",
	"AUD/CHF-OTC", "AUD/JPY-OTC",

	// OTC stocks
	"AAPL-OTC", "GOOGL-OTC", "MSFT-OTC", "AMZN-OTC", "TSLA-OTC",
	"META-OTC", "NFLX-OTC", "NVDA-OTC", "AMD-OTC", "INTC-OTC",
}

// IsSupported reports whether symbol is in Markets.
func IsSupported(symbol string) bool {
	return slices.Contains(Markets, symbol)
}
