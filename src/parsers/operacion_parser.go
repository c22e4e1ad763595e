package parsers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/calendar"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/processors"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

// Exclusion reasons specific to arbitrage parsing.
const (
	ExclInvalidVenue   = "invalidVenue"
	ExclInvalidLado    = "invalidLado"
	ExclInvalidCaucion = "invalidCaucion"
)

// InstrumentMeta carries per-instrument pricing metadata.
type InstrumentMeta struct {
	PriceConversionFactor float64
	ContractMultiplier    float64
}

// knownInstruments maps instrument symbols whose quoted price differs from
// the settled unit price. Anything absent settles at factor 1.
var knownInstruments = map[string]InstrumentMeta{
	"AL30": {PriceConversionFactor: 0.01, ContractMultiplier: 1},
	"GD30": {PriceConversionFactor: 0.01, ContractMultiplier: 1},
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

var tenorDigits = regexp.MustCompile(`(\d+)\s*D`)

// OperacionParser converts validated raw rows into arbitrage operations and
// cauciones. It owns its dedup-warning state for unknown instruments so runs
// stay isolated.
type OperacionParser struct {
	fees              *processors.FeeCalculator
	warnedInstruments map[string]struct{}
}

func NewOperacionParser(fees *processors.FeeCalculator) *OperacionParser {
	return &OperacionParser{
		fees:              fees,
		warnedInstruments: make(map[string]struct{}),
	}
}

// Parse splits rows into trade operations and cauciones. Rows violating the
// cantidad > 0 / precio > 0 invariants are dropped here, not later.
func (p *OperacionParser) Parse(rows []models.RawRow) ([]models.Operacion, []models.Caucion, models.Exclusions) {
	exclusions := make(models.Exclusions)
	var operaciones []models.Operacion
	var cauciones []models.Caucion

	for i, row := range rows {
		category := p.resolveCategory(row)
		if category == processors.CategoryCaucion {
			if c, ok := p.parseCaucion(row, i); ok {
				cauciones = append(cauciones, c)
			} else {
				exclusions.Add(ExclInvalidCaucion)
			}
			continue
		}

		op, reason := p.parseOperacion(row, i, category)
		if reason != "" {
			exclusions.Add(reason)
			continue
		}
		operaciones = append(operaciones, op)
	}

	return operaciones, cauciones, exclusions
}

func (p *OperacionParser) resolveCategory(row models.RawRow) string {
	instrument := strings.ToUpper(instrumentOf(row))
	if strings.Contains(instrument, "CAUCION") {
		return processors.CategoryCaucion
	}
	return p.fees.ResolveCfiCategory(strings.ToUpper(strings.TrimSpace(row["cfi_code"])))
}

func (p *OperacionParser) parseOperacion(row models.RawRow, index int, category string) (models.Operacion, string) {
	lado, ok := parseLado(row["side"])
	if !ok {
		return models.Operacion{}, ExclInvalidLado
	}

	venue, ok := parseVenue(row)
	if !ok {
		return models.Operacion{}, ExclInvalidVenue
	}

	rawCantidad, err := utils.ParseDecimal(row["quantity"])
	if err != nil || rawCantidad <= 0 {
		return models.Operacion{}, processors.ExclInvalidQuantity
	}
	rawPrecio, err := utils.ParseDecimal(row["price"])
	if err != nil || rawPrecio <= 0 {
		return models.Operacion{}, processors.ExclInvalidPrice
	}

	instrumento := instrumentOf(row)
	meta := p.instrumentMeta(instrumento, category)

	precio := rawPrecio * meta.PriceConversionFactor
	gross := precio * rawCantidad * meta.ContractMultiplier

	comisiones := 0.0
	if explicit, err := utils.ParseDecimal(row["commission"]); err == nil {
		comisiones = utils.AbsFloat(explicit)
	} else {
		comisiones, _ = p.fees.CalculateFee(gross, category)
	}

	total := gross + comisiones
	if lado == models.LadoVenta {
		total = gross - comisiones
	}

	orderID := strings.TrimSpace(row["order_id"])
	return models.Operacion{
		ID:                    fmt.Sprintf("op-%s-%d", orderID, index),
		OrderID:               orderID,
		Instrumento:           instrumento,
		Lado:                  lado,
		FechaHora:             parseTimestamp(row["transact_time"]),
		Cantidad:              rawCantidad,
		Precio:                precio,
		Comisiones:            comisiones,
		Total:                 total,
		Venue:                 venue,
		RawPrecio:             rawPrecio,
		RawCantidad:           rawCantidad,
		PriceConversionFactor: meta.PriceConversionFactor,
		ContractMultiplier:    meta.ContractMultiplier,
	}, ""
}

func (p *OperacionParser) parseCaucion(row models.RawRow, index int) (models.Caucion, bool) {
	tasa, err := utils.ParseDecimal(row["price"])
	if err != nil || tasa <= 0 {
		return models.Caucion{}, false
	}

	monto, err := utils.ParseDecimal(row["total"])
	if err != nil || monto <= 0 {
		cantidad, qErr := utils.ParseDecimal(row["quantity"])
		if qErr != nil || cantidad <= 0 {
			return models.Caucion{}, false
		}
		monto = cantidad
	}

	inicio := parseTimestamp(row["transact_time"])
	tenor := parseTenor(row)
	if tenor <= 0 {
		return models.Caucion{}, false
	}
	fin := inicio.AddDate(0, 0, tenor)

	tipo := models.CaucionColocadora
	if lado, ok := parseLado(row["side"]); ok && lado == models.LadoVenta {
		tipo = models.CaucionTomadora
	}

	interes := monto * (tasa / 100) * float64(tenor) / 365
	return models.Caucion{
		ID:          fmt.Sprintf("cau-%s-%d", strings.TrimSpace(row["order_id"]), index),
		Instrumento: instrumentOf(row),
		Tipo:        tipo,
		Inicio:      inicio,
		Fin:         fin,
		Monto:       monto,
		Tasa:        tasa,
		Interes:     interes,
		TenorDias:   calendar.CalendarDaysBetween(inicio, fin),
		FeeAmount:   p.fees.CaucionFee(monto, tenor, tipo),
	}, true
}

// instrumentMeta looks up pricing metadata, defaulting safely and logging
// once per distinct unknown instrument. Options settle per contract of 100.
func (p *OperacionParser) instrumentMeta(instrumento, category string) InstrumentMeta {
	if meta, ok := knownInstruments[strings.ToUpper(instrumento)]; ok {
		return meta
	}
	if _, warned := p.warnedInstruments[instrumento]; !warned {
		p.warnedInstruments[instrumento] = struct{}{}
		logger.L.Debug("No instrument metadata, using defaults", "instrumento", instrumento)
	}
	meta := InstrumentMeta{PriceConversionFactor: 1, ContractMultiplier: 1}
	if category == processors.CategoryOption {
		meta.ContractMultiplier = 100
	}
	return meta
}

func instrumentOf(row models.RawRow) string {
	if v := strings.TrimSpace(row["instrument"]); v != "" {
		return v
	}
	return strings.TrimSpace(row["symbol"])
}

func parseLado(value string) (models.Lado, bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY", "B", "C", "COMPRA":
		return models.LadoCompra, true
	case "SELL", "S", "V", "VENTA":
		return models.LadoVenta, true
	}
	return "", false
}

func parseVenue(row models.RawRow) (models.Venue, bool) {
	value := strings.TrimSpace(row["venue"])
	if value == "" {
		value = strings.TrimSpace(row["settlement_term"])
	}
	normalized := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	switch normalized {
	case "CI", "CONTADOINMEDIATO", "T0", "0":
		return models.VenueCI, true
	case "24", "24HS", "24H", "T1", "T+1", "1":
		return models.Venue24h, true
	}
	return "", false
}

func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseTenor reads the caución term in days from the term column or from the
// instrument text ("CAUCION $ 3D").
func parseTenor(row models.RawRow) int {
	if v := strings.TrimSpace(row["term"]); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if m := tenorDigits.FindStringSubmatch(strings.ToUpper(instrumentOf(row))); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return 0
}
