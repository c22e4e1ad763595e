package processors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestResolveCfiCategory(t *testing.T) {
	calc := NewFeeCalculator(DefaultFeeConfig())

	tests := []struct {
		code     string
		expected string
	}{
		{"OCASPS", CategoryOption},
		{"OPASPS", CategoryOption},
		{"ESVUFR", CategoryAccionCedear},
		{"DYXTXR", CategoryLetra},
		{"DNXTXR", CategoryLetra},
		{"RPXXXX", CategoryCaucion},
		{"LRXXXX", CategoryCaucion},
		{"DBXTXR", CategoryBonds},
		{"ZZZ", CategoryBonds},
		{"", CategoryBonds},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, calc.ResolveCfiCategory(tt.code), "code %q", tt.code)
	}
}

func TestCalculateFeeFoldsVATForOptions(t *testing.T) {
	calc := NewFeeCalculator(DefaultFeeConfig())

	total, breakdown := calc.CalculateFee(10000, CategoryOption)

	assert.InDelta(t, 60.0, breakdown.Commission, 1e-9)
	assert.InDelta(t, 4.5, breakdown.Rights, 1e-9)
	assert.InDelta(t, 13.545, breakdown.VAT, 1e-9)
	assert.InDelta(t, 78.045, total, 1e-9)
	assert.InDelta(t, breakdown.Total, total, 1e-9)
}

func TestCalculateFeeNoVATForBonds(t *testing.T) {
	calc := NewFeeCalculator(DefaultFeeConfig())

	total, breakdown := calc.CalculateFee(10000, CategoryBonds)

	assert.InDelta(t, 60.0, breakdown.Commission, 1e-9)
	assert.InDelta(t, 1.0, breakdown.Rights, 1e-9)
	assert.Zero(t, breakdown.VAT)
	assert.InDelta(t, 61.0, total, 1e-9)
}

func TestCaucionFeeByTipo(t *testing.T) {
	calc := NewFeeCalculator(DefaultFeeConfig())

	colocadora := calc.CaucionFee(100000, 3, models.CaucionColocadora)
	tomadora := calc.CaucionFee(100000, 3, models.CaucionTomadora)

	assert.InDelta(t, 100000*1.5/100*3/365, colocadora, 1e-9)
	assert.InDelta(t, 100000*2.0/100*3/365, tomadora, 1e-9)
	assert.Greater(t, tomadora, colocadora)
}

func TestEffectiveRate(t *testing.T) {
	calc := NewFeeCalculator(DefaultFeeConfig())

	assert.InDelta(t, (0.6+0.045)*1.21, calc.EffectiveRate(CategoryOption), 1e-9)
	assert.InDelta(t, 0.6+0.01, calc.EffectiveRate(CategoryBonds), 1e-9)
}

func TestLoadFeeConfigMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadFeeConfig(filepath.Join(t.TempDir(), "nope.json"))

	assert.Equal(t, DefaultFeeConfig(), cfg)
}

func TestLoadFeeConfigMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"commissionPct": 0.5, "rightsPct": {"option": 0.05}}`), 0o644))

	cfg := LoadFeeConfig(path)

	assert.InDelta(t, 0.5, cfg.CommissionPct, 1e-9)
	assert.InDelta(t, 0.05, cfg.RightsPct[CategoryOption], 1e-9)
	// Unset fields fall back.
	assert.InDelta(t, 0.21, cfg.VATRate, 1e-9)
	assert.InDelta(t, 0.01, cfg.RightsPct[CategoryBonds], 1e-9)
	assert.InDelta(t, 1.5, cfg.CaucionArancelColocadoraPct, 1e-9)
}

func TestLoadFeeConfigInvalidJSONUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.Equal(t, DefaultFeeConfig(), LoadFeeConfig(path))
}
