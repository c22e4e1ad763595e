package models

import (
	"strconv"
	"time"
)

// Venue is the settlement venue of an operation.
type Venue string

const (
	VenueCI  Venue = "CI"   // contado inmediato, same-day settlement
	Venue24h Venue = "24hs" // next-business-day settlement
)

// Lado is the side of an operation in broker notation.
type Lado string

const (
	LadoCompra Lado = "C"
	LadoVenta  Lado = "V"
)

// Operacion is one trade execution in the arbitrage domain. Precio is always
// RawPrecio multiplied by PriceConversionFactor; the raw fields retain the
// CSV values for display. Operations with non-positive cantidad or precio are
// dropped at parse time and never reach this type.
type Operacion struct {
	ID                    string    `json:"id"`
	OrderID               string    `json:"order_id"`
	Instrumento           string    `json:"instrumento"`
	Lado                  Lado      `json:"lado"`
	FechaHora             time.Time `json:"fecha_hora"`
	Cantidad              float64   `json:"cantidad"`
	Precio                float64   `json:"precio"`
	Comisiones            float64   `json:"comisiones"`
	Total                 float64   `json:"total"`
	Venue                 Venue     `json:"venue"`
	RawPrecio             float64   `json:"raw_precio"`
	RawCantidad           float64   `json:"raw_cantidad"`
	PriceConversionFactor float64   `json:"price_conversion_factor"`
	ContractMultiplier    float64   `json:"contract_multiplier"`
}

// TipoCaucion distinguishes the lending and borrowing side of a caución.
type TipoCaucion string

const (
	CaucionColocadora TipoCaucion = "colocadora" // lending cash, earns interest
	CaucionTomadora   TipoCaucion = "tomadora"   // borrowing cash, pays interest
)

// Caucion is a short-term repo-like financing transaction. Tasa is an
// annualized percentage rate (TNA).
type Caucion struct {
	ID          string      `json:"id"`
	Instrumento string      `json:"instrumento"`
	Tipo        TipoCaucion `json:"tipo"`
	Inicio      time.Time   `json:"inicio"`
	Fin         time.Time   `json:"fin"`
	Monto       float64     `json:"monto"`
	Tasa        float64     `json:"tasa"`
	Interes     float64     `json:"interes"`
	TenorDias   int         `json:"tenor_dias"`
	FeeAmount   float64     `json:"fee_amount"`
}

// GrupoInstrumentoPlazo owns every operation of one instrument at one
// settlement term, classified into the four arbitrage legs. Groups live for
// a single aggregation pass and are not persisted.
type GrupoInstrumentoPlazo struct {
	Instrumento string      `json:"instrumento"`
	Plazo       int         `json:"plazo"`
	VentasCI    []Operacion `json:"ventas_ci"`
	Compras24h  []Operacion `json:"compras_24h"`
	ComprasCI   []Operacion `json:"compras_ci"`
	Ventas24h   []Operacion `json:"ventas_24h"`
	Cauciones   []Caucion   `json:"cauciones"`
	AvgTNA      float64     `json:"avg_tna"`
}

// Key returns the map key of the group.
func (g *GrupoInstrumentoPlazo) Key() string {
	return GrupoKey(g.Instrumento, g.Plazo)
}

// HasTradeLegs reports whether the group carries at least one trade leg.
func (g *GrupoInstrumentoPlazo) HasTradeLegs() bool {
	return len(g.VentasCI)+len(g.Compras24h)+len(g.ComprasCI)+len(g.Ventas24h) > 0
}

// Patron identifies one of the two arbitrage leg pairings.
type Patron string

const (
	PatronVentaCICompra24h Patron = "VentaCI_Compra24h" // lend cash over the term
	PatronCompraCIVenta24h Patron = "CompraCI_Venta24h" // borrow cash over the term
)

// EstadoResultado is the matching state of a pattern result.
type EstadoResultado string

const (
	EstadoSinContraparte    EstadoResultado = "SIN_CONTRAPARTE"
	EstadoCompleto          EstadoResultado = "COMPLETO"
	EstadoDesbalanceado     EstadoResultado = "CANTIDADES_DESBALANCEADAS"
	EstadoMatchedSinCaucion EstadoResultado = "MATCHED_SIN_CAUCION"
)

// EstadoTransition defines one valid estado transition.
type EstadoTransition struct {
	From      EstadoResultado
	To        EstadoResultado
	Condition string
}

// ValidEstadoTransitions lists the estado state machine. SIN_CONTRAPARTE is
// both the initial state and terminal when a side stays empty; there is no
// transition back to it once legs match.
var ValidEstadoTransitions = []EstadoTransition{
	{EstadoSinContraparte, EstadoCompleto, "both sides present, quantities equal, financing usable"},
	{EstadoSinContraparte, EstadoDesbalanceado, "both sides present, quantities unequal, financing usable"},
	{EstadoSinContraparte, EstadoMatchedSinCaucion, "both sides present, no financing rate available"},
}

// CanTransition reports whether from -> to is a legal estado transition.
func CanTransition(from, to EstadoResultado) bool {
	for _, tr := range ValidEstadoTransitions {
		if tr.From == from && tr.To == to {
			return true
		}
	}
	return false
}

// LadoResumen is the per-side breakdown attached to a pattern result for
// display.
type LadoResumen struct {
	CantidadTotal       float64 `json:"cantidad_total"`
	PrecioPromedio      float64 `json:"precio_promedio"`
	Comisiones          float64 `json:"comisiones"`
	ComisionesAsignadas float64 `json:"comisiones_asignadas"`
	CantidadOperaciones int     `json:"cantidad_operaciones"`
}

// ResultadoPatron is the computed outcome of one pattern within one group.
// It is derived on every run and never mutated after construction.
type ResultadoPatron struct {
	ID          string          `json:"id"`
	Instrumento string          `json:"instrumento"`
	Plazo       int             `json:"plazo"`
	Patron      Patron          `json:"patron"`
	MatchedQty  float64         `json:"cantidad"`
	PnlTrade    float64         `json:"pnl_trade"`
	PnlCaucion  float64         `json:"pnl_caucion"`
	PnlTotal    float64         `json:"pnl_total"`
	Estado      EstadoResultado `json:"estado"`
	Venta       LadoResumen     `json:"venta"`
	Compra      LadoResumen     `json:"compra"`
	AvgTNA      float64         `json:"avg_tna"`
	Operations  []Operacion     `json:"operations"`
	Cauciones   []Caucion       `json:"cauciones"`
}

// ArbitrageReport is the full output of one arbitrage pipeline run.
type ArbitrageReport struct {
	Jornada     time.Time         `json:"jornada"`
	AvgTNA      float64           `json:"avg_tna"`
	Grupos      int               `json:"grupos"`
	Operaciones int               `json:"operaciones"`
	Cauciones   []Caucion         `json:"cauciones"`
	Exclusions  Exclusions        `json:"exclusions"`
	Resultados  []ResultadoPatron `json:"resultados"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// GrupoKey builds the canonical "instrumento:plazo" map key.
func GrupoKey(instrumento string, plazo int) string {
	return instrumento + ":" + strconv.Itoa(plazo)
}
