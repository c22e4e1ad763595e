package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

func TestSymbolConfigRoundTrip(t *testing.T) {
	svc := NewSymbolConfigService()

	cfg := models.SymbolConfig{
		Symbol:          "ggal",
		Prefix:          "GFG",
		DefaultDecimals: 1,
		Expirations: map[string]models.ExpirationConfig{
			"OC": {Suffixes: []string{"O", "OC"}, Decimals: 1},
		},
	}
	require.NoError(t, svc.Save(cfg))

	stored, err := svc.Get("GGAL")
	require.NoError(t, err)
	assert.Equal(t, "GGAL", stored.Symbol, "symbols are stored uppercased")
	assert.Equal(t, "GFG", stored.Prefix)
	assert.Equal(t, 1, stored.Expirations["OC"].Decimals)
}

func TestSymbolConfigLastWriteWins(t *testing.T) {
	svc := NewSymbolConfigService()

	require.NoError(t, svc.Save(models.SymbolConfig{Symbol: "COM", DefaultDecimals: 1}))
	require.NoError(t, svc.Save(models.SymbolConfig{Symbol: "COM", DefaultDecimals: 2}))

	stored, err := svc.Get("COM")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.DefaultDecimals)
}

func TestSymbolConfigDelete(t *testing.T) {
	svc := NewSymbolConfigService()

	require.NoError(t, svc.Save(models.SymbolConfig{Symbol: "TMP"}))
	require.NoError(t, svc.Delete("TMP"))

	_, err := svc.Get("TMP")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.ErrorIs(t, svc.Delete("TMP"), ErrSymbolNotFound)
}

func TestSymbolConfigRejectsEmptySymbol(t *testing.T) {
	svc := NewSymbolConfigService()

	assert.Error(t, svc.Save(models.SymbolConfig{}))
}

func TestSymbolConfigList(t *testing.T) {
	svc := NewSymbolConfigService()

	require.NoError(t, svc.Save(models.SymbolConfig{Symbol: "ZZZ"}))
	require.NoError(t, svc.Save(models.SymbolConfig{Symbol: "AAA"}))

	configs, err := svc.List()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(configs), 2)
	assert.Equal(t, "AAA", configs[0].Symbol, "listing is ordered by symbol")
}
