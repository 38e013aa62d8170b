package models

// HistoricRequest asks for the raw stored series of one coin.
type HistoricRequest struct {
	ID string `query:"id" validate:"required"`
}

// ClosingPricesRequest asks for the reduced daily series of one coin. The
// days parameter is read leniently by the handler; anything unparsable or
// out of range falls back to the full window.
type ClosingPricesRequest struct {
	ID string `query:"id" validate:"required"`
}

// SearchRequest carries a free-form keyword query.
type SearchRequest struct {
	Query string `query:"query" validate:"required"`
}
