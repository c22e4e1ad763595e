package processors

import (
	"fmt"
	"sort"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

type consolidatorImpl struct{}

// NewConsolidator creates the position consolidator.
func NewConsolidator() Consolidator {
	return &consolidatorImpl{}
}

// Consolidate merges operation legs into net positions. Averaged mode groups
// by (symbol, option type, strike); raw mode by (order id, symbol, option
// type). Groups whose net quantity is exactly zero are excluded and counted,
// never silently dropped.
func (c *consolidatorImpl) Consolidate(operations []models.EnrichedOperation, useAveraging bool) models.ConsolidationView {
	exclusions := make(models.Exclusions)

	groups := make(map[string][]models.EnrichedOperation)
	var order []string
	for _, op := range operations {
		if op.OptionType != models.TypeCall && op.OptionType != models.TypePut {
			exclusions.Add(ExclUnknownOptionType)
			continue
		}
		key := groupKey(op, useAveraging)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], op)
	}

	var calls, puts []models.ConsolidatedPosition
	for _, key := range order {
		legs := groups[key]

		netQuantity := 0.0
		weightedNotional := 0.0
		feeTotal := 0.0
		for _, leg := range legs {
			signed := leg.SignedQuantity()
			netQuantity += signed
			weightedNotional += signed * leg.Price
			feeTotal += leg.Fee
		}

		// Exact offsetting fills carry no position.
		if netQuantity == 0 {
			exclusions.Add(ExclZeroNetQuantity)
			continue
		}

		first := legs[0]
		position := models.ConsolidatedPosition{
			Key:           key,
			Symbol:        first.Symbol,
			OptionType:    first.OptionType,
			Strike:        first.Strike,
			Expiration:    first.Expiration,
			TotalQuantity: netQuantity,
			AveragePrice:  weightedNotional / netQuantity,
			FeeAmount:     feeTotal,
			Legs:          len(legs),
		}
		if !useAveraging {
			position.OrderID = first.OrderID
		}

		if position.OptionType == models.TypeCall {
			calls = append(calls, position)
		} else {
			puts = append(puts, position)
		}
	}

	sortByStrike(calls)
	sortByStrike(puts)

	return models.ConsolidationView{Calls: calls, Puts: puts, Exclusions: exclusions}
}

func groupKey(op models.EnrichedOperation, useAveraging bool) string {
	strike := ""
	if op.Strike != nil {
		strike = fmt.Sprintf("%g", *op.Strike)
	}
	if useAveraging {
		return fmt.Sprintf("%s|%s|%s|averaged", op.Symbol, op.OptionType, strike)
	}
	return fmt.Sprintf("%s|%s|%s", op.OrderID, op.Symbol, op.OptionType)
}

// sortByStrike orders positions ascending by strike, nil strikes last, key as
// the deterministic tiebreak.
func sortByStrike(positions []models.ConsolidatedPosition) {
	sort.SliceStable(positions, func(i, j int) bool {
		si, sj := positions[i].Strike, positions[j].Strike
		switch {
		case si == nil && sj == nil:
			return positions[i].Key < positions[j].Key
		case si == nil:
			return false
		case sj == nil:
			return true
		case *si != *sj:
			return *si < *sj
		}
		return positions[i].Key < positions[j].Key
	})
}
