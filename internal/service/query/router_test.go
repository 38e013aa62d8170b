package query

import "testing"

var vocab = []string{"bitcoin", "ethereum", "dogecoin"}

func TestRoutePricePoint(t *testing.T) {
	got := Route("price of bitcoin", vocab)
	if got.Kind != PricePoint || got.AssetID != "bitcoin" {
		t.Fatalf("got %+v", got)
	}
}

func TestRouteTrendWithDayCount(t *testing.T) {
	got := Route("7-day trend of ethereum", vocab)
	if got.Kind != Trend || got.AssetID != "ethereum" || got.Days != 7 {
		t.Fatalf("got %+v", got)
	}
}

func TestRouteTrendSpaceSeparatedDays(t *testing.T) {
	got := Route("14 day trend of bitcoin", vocab)
	if got.Kind != Trend || got.Days != 14 {
		t.Fatalf("got %+v", got)
	}
}

func TestRouteTrendDefaultDays(t *testing.T) {
	got := Route("day trend of dogecoin", vocab)
	if got.Kind != Trend || got.AssetID != "dogecoin" || got.Days != DefaultTrendDays {
		t.Fatalf("got %+v", got)
	}
}

func TestRouteTrendDaysOutOfRange(t *testing.T) {
	got := Route("45-day trend of bitcoin", vocab)
	if got.Kind != Trend || got.Days != DefaultTrendDays {
		t.Fatalf("expected out-of-range day count to fall back to %d, got %+v", DefaultTrendDays, got)
	}
}

func TestRoutePricePrecedesTrend(t *testing.T) {
	got := Route("price of bitcoin day trend of bitcoin", vocab)
	if got.Kind != PricePoint {
		t.Fatalf("expected price intent to win, got %+v", got)
	}
}

func TestRouteCaseAndWhitespace(t *testing.T) {
	got := Route("  Price of BITCOIN  ", vocab)
	if got.Kind != PricePoint || got.AssetID != "bitcoin" {
		t.Fatalf("got %+v", got)
	}
}

func TestRouteFirstKnownTokenWins(t *testing.T) {
	got := Route("price of ethereum bitcoin", vocab)
	if got.AssetID != "ethereum" {
		t.Fatalf("expected first known token, got %+v", got)
	}
}

func TestRouteUnresolved(t *testing.T) {
	cases := []struct {
		name string
		text string
		ids  []string
	}{
		{"empty", "", vocab},
		{"whitespace", "   ", vocab},
		{"no known asset", "hello world", vocab},
		{"asset not in vocabulary", "15-day trend of dogecoin", []string{"bitcoin"}},
		{"no phrase", "bitcoin", vocab},
		{"empty vocabulary", "price of bitcoin", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Route(tc.text, tc.ids); got.Kind != Unresolved {
				t.Fatalf("expected unresolved, got %+v", got)
			}
		})
	}
}
