package processors

import (
	"time"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

// RowValidator filters raw rows by required fields, execution status, side,
// option type, numeric sanity and scope against the active symbol.
type RowValidator interface {
	ValidateAndFilter(headers []string, rows []models.RawRow) ([]models.RawRow, models.Exclusions, error)
}

// Consolidator merges per-leg operations into net positions, optionally
// volume-weighted-averaged by (symbol, option type, strike).
type Consolidator interface {
	Consolidate(operations []models.EnrichedOperation, useAveraging bool) models.ConsolidationView
}

// Aggregator groups arbitrage operations and cauciones by instrument and
// computed settlement term.
type Aggregator interface {
	AggregateByInstrumentoPlazo(operaciones []models.Operacion, cauciones []models.Caucion, jornada time.Time) map[string]*models.GrupoInstrumentoPlazo
}

// PnLEngine computes matched quantity, trade spread P&L and financing P&L
// for both arbitrage patterns of every group.
type PnLEngine interface {
	Compute(grupos map[string]*models.GrupoInstrumentoPlazo) []models.ResultadoPatron
}
