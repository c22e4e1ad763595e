package processors

import (
	"fmt"
	"sort"
	"time"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/calendar"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

type aggregatorImpl struct {
	cal *calendar.Calendar
}

// NewAggregator creates the instrument/venue aggregator over a business
// calendar.
func NewAggregator(cal *calendar.Calendar) Aggregator {
	return &aggregatorImpl{cal: cal}
}

// AggregateByInstrumentoPlazo groups operations and cauciones under
// "instrumento:plazo" keys. The plazo of an instrument is computed once from
// the earliest operation timestamp across its CI and 24h legs; jornada is the
// fallback date for operations without a timestamp.
func (a *aggregatorImpl) AggregateByInstrumentoPlazo(operaciones []models.Operacion, cauciones []models.Caucion, jornada time.Time) map[string]*models.GrupoInstrumentoPlazo {
	operaciones = dedupPartialFills(operaciones)

	earliest := make(map[string]time.Time)
	for _, op := range operaciones {
		ts := op.FechaHora
		if ts.IsZero() {
			ts = jornada
		}
		if current, ok := earliest[op.Instrumento]; !ok || ts.Before(current) {
			earliest[op.Instrumento] = ts
		}
	}

	grupos := make(map[string]*models.GrupoInstrumentoPlazo)
	ensure := func(instrumento string, plazo int) *models.GrupoInstrumentoPlazo {
		key := models.GrupoKey(instrumento, plazo)
		if g, ok := grupos[key]; ok {
			return g
		}
		g := &models.GrupoInstrumentoPlazo{Instrumento: instrumento, Plazo: plazo}
		grupos[key] = g
		return g
	}

	for _, op := range operaciones {
		plazo := a.cal.SettlementPlazoCI(earliest[op.Instrumento])
		g := ensure(op.Instrumento, plazo)
		switch {
		case op.Venue == models.VenueCI && op.Lado == models.LadoVenta:
			g.VentasCI = append(g.VentasCI, op)
		case op.Venue == models.Venue24h && op.Lado == models.LadoCompra:
			g.Compras24h = append(g.Compras24h, op)
		case op.Venue == models.VenueCI && op.Lado == models.LadoCompra:
			g.ComprasCI = append(g.ComprasCI, op)
		case op.Venue == models.Venue24h && op.Lado == models.LadoVenta:
			g.Ventas24h = append(g.Ventas24h, op)
		}
	}

	// Cauciones are keyed by their own tenor, independently of trade legs.
	for _, c := range cauciones {
		g := ensure(c.Instrumento, calendar.CalendarDaysBetween(c.Inicio, c.Fin))
		g.Cauciones = append(g.Cauciones, c)
	}

	// One weighted financing rate over the whole dataset, attached to every
	// group that trades. Cauciones cannot be linked 1:1 to arbitrage legs,
	// so the rate is deliberately global.
	avgTNA := weightedAvgTNA(cauciones)
	for _, g := range grupos {
		if g.HasTradeLegs() {
			g.AvgTNA = avgTNA
		}
	}

	return grupos
}

// dedupPartialFills collapses duplicate acknowledgements of the same fill:
// operations sharing an order id and an identical cantidad keep only the
// earliest-timestamped occurrence.
func dedupPartialFills(operaciones []models.Operacion) []models.Operacion {
	ordered := make([]models.Operacion, len(operaciones))
	copy(ordered, operaciones)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].FechaHora.Equal(ordered[j].FechaHora) {
			return ordered[i].FechaHora.Before(ordered[j].FechaHora)
		}
		return ordered[i].ID < ordered[j].ID
	})

	seen := make(map[string]struct{}, len(ordered))
	deduped := ordered[:0]
	for _, op := range ordered {
		key := fmt.Sprintf("%s|%g", op.OrderID, op.Cantidad)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, op)
	}
	return deduped
}

// weightedAvgTNA computes the monto-weighted mean financing rate over all
// cauciones in the dataset.
func weightedAvgTNA(cauciones []models.Caucion) float64 {
	totalMonto := 0.0
	weighted := 0.0
	for _, c := range cauciones {
		totalMonto += c.Monto
		weighted += c.Tasa * c.Monto
	}
	if totalMonto == 0 {
		return 0
	}
	return weighted / totalMonto
}
