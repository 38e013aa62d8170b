package models

import "encoding/json"

// RawPoint is one [timestamp_ms, value] sample from a market_chart payload.
// Upstream payloads are occasionally ragged; a pair that does not decode as
// two numbers is kept with OK=false and skipped by consumers.
type RawPoint struct {
	TimestampMS int64
	Value       float64
	OK          bool
}

// NewRawPoint builds a well-formed sample.
func NewRawPoint(timestampMS int64, value float64) RawPoint {
	return RawPoint{TimestampMS: timestampMS, Value: value, OK: true}
}

// UnmarshalJSON never fails: a malformed pair yields OK=false instead of
// aborting the decode of the surrounding series.
func (p *RawPoint) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil || len(pair) < 2 {
		*p = RawPoint{}
		return nil
	}
	*p = RawPoint{TimestampMS: int64(pair[0]), Value: pair[1], OK: true}
	return nil
}

func (p RawPoint) MarshalJSON() ([]byte, error) {
	if !p.OK {
		return []byte("null"), nil
	}
	return json.Marshal([2]float64{float64(p.TimestampMS), p.Value})
}

// HistoricData is the stored market_chart document for one coin.
type HistoricData struct {
	ID           string     `json:"id"`
	Prices       []RawPoint `json:"prices"`
	MarketCaps   []RawPoint `json:"market_caps"`
	TotalVolumes []RawPoint `json:"total_volumes"`
}

// DailySample is one reduced value per UTC calendar day.
type DailySample struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// ClosingSeries pairs the per-day price and market-cap series for one coin.
// Both sequences are ascending by date; their date sets may differ.
type ClosingSeries struct {
	ID         string        `json:"id"`
	Prices     []DailySample `json:"prices"`
	MarketCaps []DailySample `json:"market_caps"`
}
