package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

var validHeaders = []string{"order_id", "symbol", "side", "option_type", "strike", "quantity", "price", "event_type", "status"}

func validRow(overrides map[string]string) models.RawRow {
	row := models.RawRow{
		"order_id":    "ord-1",
		"symbol":      "GFGC47343O",
		"side":        "BUY",
		"option_type": "CALL",
		"strike":      "4734.3",
		"quantity":    "10",
		"price":       "120.5",
		"event_type":  "Execution_Report",
		"status":      "Filled",
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func TestValidateAndFilterMissingHeaderIsStructural(t *testing.T) {
	v := NewRowValidator("GFG", nil)

	_, _, err := v.ValidateAndFilter([]string{"order_id", "symbol", "side"}, []models.RawRow{validRow(nil)})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "option_type")
	assert.Contains(t, err.Error(), "price")
}

func TestValidateAndFilterExclusionReasons(t *testing.T) {
	v := NewRowValidator("GFG", nil)

	tests := []struct {
		name      string
		overrides map[string]string
		reason    string
	}{
		{"empty required field", map[string]string{"symbol": "  "}, ExclMissingFields},
		{"non-execution event", map[string]string{"event_type": "NEW_ORDER"}, ExclNotExecution},
		{"cancelled status", map[string]string{"status": "CANCELED"}, ExclStatusNotExecuted},
		{"unknown side", map[string]string{"side": "HOLD"}, ExclInvalidSide},
		{"unknown option type", map[string]string{"option_type": "SWAP"}, ExclInvalidOptionType},
		{"non-numeric strike", map[string]string{"strike": "abc"}, ExclInvalidStrike},
		{"zero quantity", map[string]string{"quantity": "0"}, ExclInvalidQuantity},
		{"negative price", map[string]string{"price": "-1"}, ExclInvalidPrice},
		{"other underlying", map[string]string{"symbol": "ALUAC500NO"}, ExclOutOfScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, exclusions, err := v.ValidateAndFilter(validHeaders, []models.RawRow{validRow(tt.overrides)})

			require.NoError(t, err)
			assert.Empty(t, valid)
			assert.Equal(t, 1, exclusions[tt.reason])
			assert.Equal(t, 1, exclusions.Total())
		})
	}
}

func TestValidateAndFilterCheckOrder(t *testing.T) {
	v := NewRowValidator("GFG", nil)

	// A row failing several checks is counted once, under the first failure.
	row := validRow(map[string]string{"side": "HOLD", "price": "-1"})
	_, exclusions, err := v.ValidateAndFilter(validHeaders, []models.RawRow{row})

	require.NoError(t, err)
	assert.Equal(t, 1, exclusions[ExclInvalidSide])
	assert.Zero(t, exclusions[ExclInvalidPrice])
}

func TestValidateAndFilterConservation(t *testing.T) {
	v := NewRowValidator("GFG", nil)

	rows := []models.RawRow{
		validRow(nil),
		validRow(map[string]string{"side": "SELL"}),
		validRow(map[string]string{"quantity": ""}),
		validRow(map[string]string{"status": "REJECTED"}),
		validRow(map[string]string{"symbol": "ALUAC500NO"}),
	}
	valid, exclusions, err := v.ValidateAndFilter(validHeaders, rows)

	require.NoError(t, err)
	assert.Len(t, valid, 2)
	assert.Equal(t, len(rows), len(valid)+exclusions.Total())
}

func TestValidateAndFilterCommaDecimals(t *testing.T) {
	v := NewRowValidator("GFG", nil)

	row := validRow(map[string]string{"strike": "4734,3", "price": "120,5"})
	valid, _, err := v.ValidateAndFilter(validHeaders, []models.RawRow{row})

	require.NoError(t, err)
	assert.Len(t, valid, 1)
}

func TestValidateAndFilterScopeWithSuffixes(t *testing.T) {
	cfg := &models.SymbolConfig{
		Symbol: "GFG",
		Expirations: map[string]models.ExpirationConfig{
			"OC": {Suffixes: []string{"O", "OC"}},
		},
	}
	v := NewRowValidator("GFG", cfg)

	tests := []struct {
		symbol string
		valid  bool
	}{
		{"GFGC47343O", true},  // side letter stripped, ends with O
		{"GFGV47343OC", true}, // put side, OC suffix
		{"GFGC47343D", false}, // unrelated expiration
		{"ALUAC500O", false},  // other underlying
	}
	for _, tt := range tests {
		valid, exclusions, err := v.ValidateAndFilter(validHeaders, []models.RawRow{validRow(map[string]string{"symbol": tt.symbol})})

		require.NoError(t, err)
		if tt.valid {
			assert.Len(t, valid, 1, "symbol %q", tt.symbol)
		} else {
			assert.Equal(t, 1, exclusions[ExclOutOfScope], "symbol %q", tt.symbol)
		}
	}
}
