package repository

import "strings"

// Product identifies an exchange trading pair for one currency.
type Product string

const (
	BTCUSD Product = "BTC-USD"
	ETHUSD Product = "ETH-USD"
	LTCUSD Product = "LTC-USD"
)

// DefaultProducts returns the research universe.
func DefaultProducts() []Product { return []Product{BTCUSD, ETHUSD, LTCUSD} }

// NormalizeProduct converts raw input ("btc", "BTC_USD") to canonical form.
func NormalizeProduct(s string) Product {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	if !strings.Contains(s, "-") && s != "" {
		s += "-USD"
	}
	return Product(s)
}
