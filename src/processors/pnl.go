package processors

import (
	"sort"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

type pnlEngineImpl struct{}

// NewPnLEngine creates the arbitrage P&L engine.
func NewPnLEngine() PnLEngine {
	return &pnlEngineImpl{}
}

// Compute derives one ResultadoPatron per pattern for every group with trade
// legs. Group keys are walked in sorted order so repeated runs over the same
// input produce identical output.
func (e *pnlEngineImpl) Compute(grupos map[string]*models.GrupoInstrumentoPlazo) []models.ResultadoPatron {
	keys := make([]string, 0, len(grupos))
	for key, g := range grupos {
		if g.HasTradeLegs() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var resultados []models.ResultadoPatron
	for _, key := range keys {
		g := grupos[key]
		resultados = append(resultados,
			e.computePattern(g, models.PatronVentaCICompra24h, g.VentasCI, g.Compras24h),
			e.computePattern(g, models.PatronCompraCIVenta24h, g.Ventas24h, g.ComprasCI),
		)
	}
	return resultados
}

// computePattern matches the sell legs of one pattern against its buy legs.
// For VentaCI_Compra24h the CI leg is the sell side (cash is lent over the
// term); for CompraCI_Venta24h the CI leg is the buy side (cash is borrowed).
func (e *pnlEngineImpl) computePattern(g *models.GrupoInstrumentoPlazo, patron models.Patron, sells, buys []models.Operacion) models.ResultadoPatron {
	res := models.ResultadoPatron{
		ID:          g.Key() + ":" + string(patron),
		Instrumento: g.Instrumento,
		Plazo:       g.Plazo,
		Patron:      patron,
		Estado:      models.EstadoSinContraparte,
		AvgTNA:      g.AvgTNA,
		Cauciones:   g.Cauciones,
	}
	res.Operations = append(res.Operations, sells...)
	res.Operations = append(res.Operations, buys...)

	sellQty, sellAvg, sellFees := sideTotals(sells)
	buyQty, buyAvg, buyFees := sideTotals(buys)
	res.Venta = models.LadoResumen{
		CantidadTotal:       sellQty,
		PrecioPromedio:      sellAvg,
		Comisiones:          sellFees,
		CantidadOperaciones: len(sells),
	}
	res.Compra = models.LadoResumen{
		CantidadTotal:       buyQty,
		PrecioPromedio:      buyAvg,
		Comisiones:          buyFees,
		CantidadOperaciones: len(buys),
	}

	// No counterparty on at least one side: terminal.
	if len(sells) == 0 || len(buys) == 0 {
		return res
	}

	matched := utils.MinFloat(sellQty, buyQty)
	res.MatchedQty = matched

	// Fees are prorated by the matched share of each side.
	propSellFees := sellFees * matched / sellQty
	propBuyFees := buyFees * matched / buyQty
	res.Venta.ComisionesAsignadas = propSellFees
	res.Compra.ComisionesAsignadas = propBuyFees

	res.PnlTrade = (sellAvg-buyAvg)*matched - (propSellFees + propBuyFees)

	sign := 1.0
	ciAvg := sellAvg
	if patron == models.PatronCompraCIVenta24h {
		sign = -1.0
		ciAvg = buyAvg
	}

	caucionFees := 0.0
	for _, c := range g.Cauciones {
		caucionFees += c.FeeAmount
	}

	switch {
	case g.AvgTNA > 0 && g.Plazo > 0:
		res.PnlCaucion = sign*(matched*ciAvg)*(g.AvgTNA/100)*(float64(g.Plazo)/365) - caucionFees
	case len(g.Cauciones) > 0:
		interes := 0.0
		for _, c := range g.Cauciones {
			if c.Monto > 0 {
				interes += c.Interes * matched / c.Monto
			}
		}
		res.PnlCaucion = sign * interes
	}

	financingUsable := g.AvgTNA > 0 || len(g.Cauciones) > 0
	target := models.EstadoMatchedSinCaucion
	if financingUsable {
		if sellQty == buyQty {
			target = models.EstadoCompleto
		} else {
			target = models.EstadoDesbalanceado
		}
	}
	if models.CanTransition(res.Estado, target) {
		res.Estado = target
	}

	res.PnlTotal = res.PnlTrade + res.PnlCaucion
	return res
}

// sideTotals returns total quantity, the quantity-weighted average price and
// the summed comisiones of one side's legs.
func sideTotals(legs []models.Operacion) (qty, avgPrice, fees float64) {
	notional := 0.0
	for _, op := range legs {
		qty += op.Cantidad
		notional += op.Cantidad * op.Precio
		fees += op.Comisiones
	}
	if qty > 0 {
		avgPrice = notional / qty
	}
	return qty, avgPrice, fees
}
