// Package query routes free-form search text to a structured lookup intent.
package query

import (
	"regexp"
	"strings"
)

// Kind classifies what a query is asking for.
type Kind int

const (
	// Unresolved means the text could not be mapped to a known asset and
	// phrase; callers fall back to their default behavior.
	Unresolved Kind = iota
	// PricePoint asks for the current market summary of one asset.
	PricePoint
	// Trend asks for an N-day historic series of one asset.
	Trend
)

const (
	// DefaultTrendDays is used when the query names no day count, or names
	// one outside the accepted range.
	DefaultTrendDays = 30

	minTrendDays = 1
	maxTrendDays = 30
)

// Intent is the routed form of a search query. Days is only meaningful when
// Kind is Trend.
type Intent struct {
	Kind    Kind
	AssetID string
	Days    int
}

// Matches "7-day", "7 day", "14day" anywhere in the lowercased query.
var dayCountRe = regexp.MustCompile(`(\d{1,2})[\s-]?day`)

// Route resolves queryText against the known asset vocabulary and classifies
// it. Resolution is token-based: the query is lowercased and split on
// whitespace, and the first token that is a known asset id wins. Queries with
// no resolvable asset, or no recognized phrase, come back Unresolved.
func Route(queryText string, knownIDs []string) Intent {
	text := strings.ToLower(strings.TrimSpace(queryText))
	if text == "" {
		return Intent{Kind: Unresolved}
	}

	known := make(map[string]struct{}, len(knownIDs))
	for _, id := range knownIDs {
		known[strings.ToLower(id)] = struct{}{}
	}

	var asset string
	for _, tok := range strings.Fields(text) {
		if _, ok := known[tok]; ok {
			asset = tok
			break
		}
	}
	if asset == "" {
		return Intent{Kind: Unresolved}
	}

	// "price of" takes precedence over "day trend of" when both appear.
	if strings.Contains(text, "price of") {
		return Intent{Kind: PricePoint, AssetID: asset}
	}
	if strings.Contains(text, "day trend of") {
		return Intent{Kind: Trend, AssetID: asset, Days: trendDays(text)}
	}
	return Intent{Kind: Unresolved}
}

func trendDays(text string) int {
	m := dayCountRe.FindStringSubmatch(text)
	if m == nil {
		return DefaultTrendDays
	}
	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}
	if n < minTrendDays || n > maxTrendDays {
		return DefaultTrendDays
	}
	return n
}
