package repository

import "testing"

func TestNormalizeProduct(t *testing.T) {
	cases := map[string]Product{
		"btc":     BTCUSD,
		"BTC":     BTCUSD,
		"BTC-USD": BTCUSD,
		"btc_usd": BTCUSD,
		"eth-usd": ETHUSD,
		"LTC":     LTCUSD,
	}
	for in, want := range cases {
		if got := NormalizeProduct(in); got != want {
			t.Fatalf("NormalizeProduct(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultProducts(t *testing.T) {
	ps := DefaultProducts()
	if len(ps) != 3 {
		t.Fatalf("products = %v", ps)
	}
}
