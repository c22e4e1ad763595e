package models

import "time"

// RawRow is a single CSV row keyed by header name, exactly as the parser read
// it. Values are whitespace-trimmed strings; numeric conversion happens during
// validation.
type RawRow map[string]string

// Option types resolved per operation.
const (
	TypeCall    = "CALL"
	TypePut     = "PUT"
	TypeUnknown = "UNKNOWN"
)

// Operation sides.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Expiration placeholders used when nothing could be resolved.
const (
	ExpirationUnknown = "UNKNOWN"
	ExpirationNone    = "NONE"
)

// EnrichmentMeta records how the enrichment resolver arrived at its output,
// for display and debugging.
type EnrichmentMeta struct {
	DetectedFromToken bool   `json:"detected_from_token"`
	SourceToken       string `json:"source_token,omitempty"`
	PrefixRule        string `json:"prefix_rule,omitempty"`
	StrikeDecimals    *int   `json:"strike_decimals,omitempty"`
}

// EnrichedOperation is one validated and symbol-resolved operation. It is
// created once per valid row and never mutated afterwards. Strike is nil only
// when no numeric strike could be resolved from any source; OptionType
// defaults to UNKNOWN rather than failing the row.
type EnrichedOperation struct {
	ID         string         `json:"id"`
	OrderID    string         `json:"order_id"`
	Symbol     string         `json:"symbol"`
	Expiration string         `json:"expiration"`
	Strike     *float64       `json:"strike"`
	OptionType string         `json:"type"`
	Quantity   float64        `json:"quantity"`
	Price      float64        `json:"price"`
	Side       string         `json:"side"`
	Fee        float64        `json:"fee"`
	Meta       EnrichmentMeta `json:"meta"`
}

// FeeBreakdown itemizes the fee charged over one gross notional.
type FeeBreakdown struct {
	Commission float64 `json:"commission"`
	Rights     float64 `json:"rights"`
	VAT        float64 `json:"vat"`
	Total      float64 `json:"total"`
}

// SignedQuantity applies the BUY=+1 / SELL=-1 multiplier.
func (op EnrichedOperation) SignedQuantity() float64 {
	if op.Side == SideSell {
		return -op.Quantity
	}
	return op.Quantity
}

// Exclusions counts dropped rows by named reason. Rows are never partially
// validated: a row either survives every check or increments exactly one
// counter here.
type Exclusions map[string]int

// Add increments a named exclusion counter.
func (e Exclusions) Add(reason string) { e[reason]++ }

// Total returns the sum over all counters.
func (e Exclusions) Total() int {
	total := 0
	for _, n := range e {
		total += n
	}
	return total
}

// ConsolidatedPosition aggregates one or more operation legs sharing a
// grouping key. TotalQuantity is the signed sum of leg quantities and
// AveragePrice the notional-weighted mean of leg prices.
type ConsolidatedPosition struct {
	Key           string   `json:"key"`
	OrderID       string   `json:"order_id,omitempty"`
	Symbol        string   `json:"symbol"`
	OptionType    string   `json:"type"`
	Strike        *float64 `json:"strike"`
	Expiration    string   `json:"expiration"`
	TotalQuantity float64  `json:"total_quantity"`
	AveragePrice  float64  `json:"average_price"`
	FeeAmount     float64  `json:"fee_amount"`
	Legs          int      `json:"legs"`
}

// ConsolidationView is one rendering of the consolidated operations, either
// order-level (raw) or volume-weighted-averaged.
type ConsolidationView struct {
	Calls      []ConsolidatedPosition `json:"calls"`
	Puts       []ConsolidatedPosition `json:"puts"`
	Exclusions Exclusions             `json:"exclusions"`
}

// GroupSummary counts operations per (symbol, expiration) for display tabs.
type GroupSummary struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	Expiration string `json:"expiration"`
	Calls      int    `json:"calls"`
	Puts       int    `json:"puts"`
	Total      int    `json:"total"`
}

// ReportSummary is the header block of a pipeline report.
type ReportSummary struct {
	RawRows     int        `json:"raw_rows"`
	ValidRows   int        `json:"valid_rows"`
	CallsRows   int        `json:"calls_rows"`
	PutsRows    int        `json:"puts_rows"`
	TotalRows   int        `json:"total_rows"`
	Exclusions  Exclusions `json:"exclusions"`
	Warnings    []string   `json:"warnings"`
	ProcessedAt time.Time  `json:"processed_at"`
}

// ReportViews carries both consolidation modes so the UI can switch without
// recomputing.
type ReportViews struct {
	Raw      ConsolidationView `json:"raw"`
	Averaged ConsolidationView `json:"averaged"`
}

// ReportSide lists the consolidated operations of one option side.
type ReportSide struct {
	Operations []ConsolidatedPosition `json:"operations"`
}

// Report is the full output of one display pipeline run. Calls and Puts carry
// the averaged view; Views keeps both modes for the UI toggle.
type Report struct {
	Summary    ReportSummary       `json:"summary"`
	Calls      ReportSide          `json:"calls"`
	Puts       ReportSide          `json:"puts"`
	Views      ReportViews         `json:"views"`
	Groups     []GroupSummary      `json:"groups"`
	Operations []EnrichedOperation `json:"operations"`
}
