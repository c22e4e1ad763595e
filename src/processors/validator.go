package processors

import (
	"fmt"
	"strings"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

// Named exclusion reasons. Conservation holds over these: every dropped row
// increments exactly one counter.
const (
	ExclMissingFields     = "missingFields"
	ExclNotExecution      = "notExecutionReport"
	ExclStatusNotExecuted = "statusNotExecuted"
	ExclInvalidSide       = "invalidSide"
	ExclInvalidOptionType = "invalidOptionType"
	ExclInvalidStrike     = "invalidStrike"
	ExclInvalidQuantity   = "invalidQuantity"
	ExclInvalidPrice      = "invalidPrice"
	ExclOutOfScope        = "outOfScope"
	ExclZeroNetQuantity   = "zeroNetQuantity"
	ExclUnknownOptionType = "unknownOptionType"
)

var requiredColumns = []string{"order_id", "symbol", "side", "option_type", "strike", "quantity", "price"}

type rowValidatorImpl struct {
	activeSymbol string
	suffixes     []string
}

// NewRowValidator builds a validator scoped to the active symbol. When the
// symbol has a configuration, its expiration suffixes tighten the scope
// check; cfg may be nil.
func NewRowValidator(activeSymbol string, cfg *models.SymbolConfig) RowValidator {
	var suffixes []string
	if cfg != nil {
		for _, s := range cfg.ExpirationSuffixes() {
			suffixes = append(suffixes, strings.ToUpper(s))
		}
	}
	return &rowValidatorImpl{
		activeSymbol: strings.ToUpper(strings.TrimSpace(activeSymbol)),
		suffixes:     suffixes,
	}
}

// ValidateAndFilter applies the check chain to every row. A required column
// missing from the header entirely is structural and aborts; every other
// failure drops the single row under a named exclusion reason.
func (v *rowValidatorImpl) ValidateAndFilter(headers []string, rows []models.RawRow) ([]models.RawRow, models.Exclusions, error) {
	if missing := missingRequiredColumns(headers); len(missing) > 0 {
		return nil, nil, fmt.Errorf("required CSV columns absent: %s", strings.Join(missing, ", "))
	}

	exclusions := make(models.Exclusions)
	var valid []models.RawRow
	for _, row := range rows {
		if reason := v.checkRow(row); reason != "" {
			exclusions.Add(reason)
			continue
		}
		valid = append(valid, row)
	}
	return valid, exclusions, nil
}

// checkRow returns the first failing exclusion reason, or "" when the row
// passes every check. The check order is fixed.
func (v *rowValidatorImpl) checkRow(row models.RawRow) string {
	for _, col := range requiredColumns {
		if strings.TrimSpace(row[col]) == "" {
			return ExclMissingFields
		}
	}

	if eventType, ok := row["event_type"]; ok && strings.TrimSpace(eventType) != "" {
		if !isExecutionReport(eventType) {
			return ExclNotExecution
		}
	}

	if status, ok := row["status"]; ok && strings.TrimSpace(status) != "" {
		if !isExecutedStatus(status) {
			return ExclStatusNotExecuted
		}
	}

	side := strings.ToUpper(strings.TrimSpace(row["side"]))
	if side != models.SideBuy && side != models.SideSell {
		return ExclInvalidSide
	}

	if normalizeOptionType(row["option_type"]) == "" {
		return ExclInvalidOptionType
	}

	if _, err := utils.ParseDecimal(row["strike"]); err != nil {
		return ExclInvalidStrike
	}
	if qty, err := utils.ParseDecimal(row["quantity"]); err != nil || qty == 0 {
		return ExclInvalidQuantity
	}
	if price, err := utils.ParseDecimal(row["price"]); err != nil || price <= 0 {
		return ExclInvalidPrice
	}

	if !v.inScope(row["symbol"]) {
		return ExclOutOfScope
	}
	return ""
}

// inScope requires the candidate symbol to start with the active symbol.
// With configured suffixes, the remainder after the active symbol and an
// optional option-side letter must start or end with one of them.
func (v *rowValidatorImpl) inScope(candidate string) bool {
	candidate = strings.ToUpper(strings.TrimSpace(candidate))
	if !strings.HasPrefix(candidate, v.activeSymbol) {
		return false
	}
	if len(v.suffixes) == 0 {
		return true
	}
	remainder := candidate[len(v.activeSymbol):]
	if len(remainder) > 0 && (remainder[0] == 'C' || remainder[0] == 'V') {
		remainder = remainder[1:]
	}
	for _, suffix := range v.suffixes {
		if strings.HasPrefix(remainder, suffix) || strings.HasSuffix(remainder, suffix) {
			return true
		}
	}
	return false
}

func missingRequiredColumns(headers []string) []string {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func isExecutionReport(value string) bool {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), "_", "")) {
	case "EXECUTIONREPORT", "EXECREPORT", "8":
		return true
	}
	return false
}

func isExecutedStatus(value string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(normalized)
	switch normalized {
	case "FILLED", "EXECUTED", "PARTIALLYFILLED", "PARTIALLYEXECUTED", "PARTIALFILL", "1", "2":
		return true
	}
	return false
}

func normalizeOptionType(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CALL", "C":
		return models.TypeCall
	case "PUT", "P", "V":
		return models.TypePut
	}
	return ""
}
