package model

// SymbolFilters holds the trading rules of one futures symbol as reported by
// /fapi/v1/exchangeInfo. Values stay in the exchange's string form; a nil
// filter means the symbol does not publish that filter type.
type SymbolFilters struct {
	Symbol  string
	LotSize *LotSizeFilter
	Price   *PriceFilter
}

// LotSizeFilter bounds and quantizes order quantity (LOT_SIZE).
type LotSizeFilter struct {
	MinQty   string `json:"minQty"`
	MaxQty   string `json:"maxQty"`
	StepSize string `json:"stepSize"`
}

// PriceFilter bounds and quantizes order price (PRICE_FILTER).
// MaxPrice "0" means the exchange enforces no upper bound.
type PriceFilter struct {
	MinPrice string `json:"minPrice"`
	MaxPrice string `json:"maxPrice"`
	TickSize string `json:"tickSize"`
}
