package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

func strikePtr(v float64) *float64 { return &v }

func enrichedOp(orderID, side string, strike, qty, price float64) models.EnrichedOperation {
	return models.EnrichedOperation{
		ID:         "op-" + orderID,
		OrderID:    orderID,
		Symbol:     "GFG",
		Expiration: "OC",
		Strike:     strikePtr(strike),
		OptionType: models.TypeCall,
		Quantity:   qty,
		Price:      price,
		Side:       side,
		Fee:        1,
	}
}

func TestConsolidateAveragedWeightsByQuantity(t *testing.T) {
	c := NewConsolidator()

	view := c.Consolidate([]models.EnrichedOperation{
		enrichedOp("1", models.SideBuy, 4734.3, 10, 100),
		enrichedOp("2", models.SideBuy, 4734.3, 30, 120),
	}, true)

	require.Len(t, view.Calls, 1)
	pos := view.Calls[0]
	assert.InDelta(t, 40.0, pos.TotalQuantity, 1e-9)
	assert.InDelta(t, 115.0, pos.AveragePrice, 1e-9)
	assert.InDelta(t, 2.0, pos.FeeAmount, 1e-9)
	assert.Equal(t, 2, pos.Legs)
	assert.Empty(t, pos.OrderID)
}

func TestConsolidateRawKeepsOrdersApart(t *testing.T) {
	c := NewConsolidator()

	view := c.Consolidate([]models.EnrichedOperation{
		enrichedOp("1", models.SideBuy, 4734.3, 10, 100),
		enrichedOp("2", models.SideBuy, 4734.3, 30, 120),
	}, false)

	require.Len(t, view.Calls, 2)
	assert.Equal(t, "1", view.Calls[0].OrderID)
	assert.Equal(t, "2", view.Calls[1].OrderID)
}

func TestConsolidateExcludesZeroNet(t *testing.T) {
	c := NewConsolidator()

	view := c.Consolidate([]models.EnrichedOperation{
		enrichedOp("1", models.SideBuy, 4734.3, 10, 100),
		enrichedOp("2", models.SideSell, 4734.3, 10, 110),
	}, true)

	assert.Empty(t, view.Calls)
	assert.Equal(t, 1, view.Exclusions[ExclZeroNetQuantity])
}

func TestConsolidateExcludesUnknownType(t *testing.T) {
	c := NewConsolidator()

	op := enrichedOp("1", models.SideBuy, 4734.3, 10, 100)
	op.OptionType = models.TypeUnknown
	view := c.Consolidate([]models.EnrichedOperation{op}, true)

	assert.Empty(t, view.Calls)
	assert.Empty(t, view.Puts)
	assert.Equal(t, 1, view.Exclusions[ExclUnknownOptionType])
}

func TestConsolidateSortsByStrikeNilLast(t *testing.T) {
	c := NewConsolidator()

	noStrike := enrichedOp("3", models.SideBuy, 0, 5, 50)
	noStrike.Strike = nil
	view := c.Consolidate([]models.EnrichedOperation{
		enrichedOp("1", models.SideBuy, 5000, 10, 100),
		enrichedOp("2", models.SideBuy, 4734.3, 10, 100),
		noStrike,
	}, true)

	require.Len(t, view.Calls, 3)
	assert.InDelta(t, 4734.3, *view.Calls[0].Strike, 1e-9)
	assert.InDelta(t, 5000.0, *view.Calls[1].Strike, 1e-9)
	assert.Nil(t, view.Calls[2].Strike)
}

func TestConsolidateSplitsCallsAndPuts(t *testing.T) {
	c := NewConsolidator()

	put := enrichedOp("2", models.SideSell, 4600, 5, 80)
	put.OptionType = models.TypePut
	view := c.Consolidate([]models.EnrichedOperation{
		enrichedOp("1", models.SideBuy, 4734.3, 10, 100),
		put,
	}, true)

	require.Len(t, view.Calls, 1)
	require.Len(t, view.Puts, 1)
	assert.InDelta(t, -5.0, view.Puts[0].TotalQuantity, 1e-9)
}
