package processors

import (
	"fmt"
	"os"
	"regexp"

	jsoniter "github.com/json-iterator/go"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Instrument categories resolved from exchange instrument codes.
const (
	CategoryOption       = "option"
	CategoryAccionCedear = "accionCedear"
	CategoryLetra        = "letra"
	CategoryBonds        = "bonds"
	CategoryCaucion      = "caucion"
)

// FeeConfig is the external fee configuration (§ BYMA rights, VAT, broker
// commission, caución arancel). Percentages are expressed per hundred; the
// VAT rate is a plain fraction.
type FeeConfig struct {
	CommissionPct               float64            `json:"commissionPct"`
	VATRate                     float64            `json:"vatRate"`
	RightsPct                   map[string]float64 `json:"rightsPct"`
	CaucionArancelColocadoraPct float64            `json:"caucionArancelColocadoraPct"`
	CaucionArancelTomadoraPct   float64            `json:"caucionArancelTomadoraPct"`
}

// DefaultFeeConfig returns the fallback fee schedule applied when the config
// file is absent or leaves fields unset.
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{
		CommissionPct: 0.6,
		VATRate:       0.21,
		RightsPct: map[string]float64{
			CategoryAccionCedear: 0.08,
			CategoryOption:       0.045,
			CategoryLetra:        0.001,
			CategoryBonds:        0.01,
			CategoryCaucion:      0.045,
		},
		CaucionArancelColocadoraPct: 1.5,
		CaucionArancelTomadoraPct:   2.0,
	}
}

// LoadFeeConfig reads and validates the fee configuration file, filling in
// defaults for anything unset. A missing file is not fatal: defaults apply.
func LoadFeeConfig(path string) FeeConfig {
	defaults := DefaultFeeConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.L.Warn("Fee config file not readable, using defaults", "path", path, "error", err)
		return defaults
	}

	var cfg FeeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.L.Warn("Fee config file invalid, using defaults", "path", path, "error", err)
		return defaults
	}

	if cfg.CommissionPct <= 0 {
		cfg.CommissionPct = defaults.CommissionPct
	}
	if cfg.VATRate <= 0 {
		cfg.VATRate = defaults.VATRate
	}
	if cfg.RightsPct == nil {
		cfg.RightsPct = map[string]float64{}
	}
	for category, pct := range defaults.RightsPct {
		if _, ok := cfg.RightsPct[category]; !ok {
			cfg.RightsPct[category] = pct
		}
	}
	if cfg.CaucionArancelColocadoraPct <= 0 {
		cfg.CaucionArancelColocadoraPct = defaults.CaucionArancelColocadoraPct
	}
	if cfg.CaucionArancelTomadoraPct <= 0 {
		cfg.CaucionArancelTomadoraPct = defaults.CaucionArancelTomadoraPct
	}

	logger.L.Info("Fee config loaded", "path", path, "commissionPct", cfg.CommissionPct, "vatRate", cfg.VATRate)
	return cfg
}

// Exchange code prefixes. Anything unmatched defaults to bonds.
var cfiPatterns = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`^O`), CategoryOption},
	{regexp.MustCompile(`^E`), CategoryAccionCedear},
	{regexp.MustCompile(`^D[YN]`), CategoryLetra},
	{regexp.MustCompile(`^(RP|LR)`), CategoryCaucion},
}

// Categories whose commission and rights carry VAT.
var vatCategories = map[string]bool{
	CategoryOption:       true,
	CategoryAccionCedear: true,
}

// FeeCalculator computes commission/rights/VAT amounts over gross notional
// from precomputed per-category effective rates. It owns its dedup-warning
// state so concurrent runs stay isolated.
type FeeCalculator struct {
	cfg         FeeConfig
	warnedCodes map[string]struct{}
}

// NewFeeCalculator builds a calculator over one fee configuration.
func NewFeeCalculator(cfg FeeConfig) *FeeCalculator {
	return &FeeCalculator{
		cfg:         cfg,
		warnedCodes: make(map[string]struct{}),
	}
}

// ResolveCfiCategory maps an exchange instrument code to a fee category.
// Unknown codes never abort processing: they fall back to bonds and are
// logged once per distinct code.
func (f *FeeCalculator) ResolveCfiCategory(code string) string {
	for _, p := range cfiPatterns {
		if p.re.MatchString(code) {
			return p.category
		}
	}
	if _, warned := f.warnedCodes[code]; !warned {
		f.warnedCodes[code] = struct{}{}
		logger.L.Warn("Unrecognized instrument code, defaulting to bonds", "code", code)
	}
	return CategoryBonds
}

// CalculateFee computes the fee charged over one gross notional for a
// category. Pure function of the configuration.
func (f *FeeCalculator) CalculateFee(grossNotional float64, category string) (float64, models.FeeBreakdown) {
	commission := grossNotional * f.cfg.CommissionPct / 100
	rights := grossNotional * f.cfg.RightsPct[category] / 100

	vat := 0.0
	if vatCategories[category] {
		vat = (commission + rights) * f.cfg.VATRate
	}

	breakdown := models.FeeBreakdown{
		Commission: commission,
		Rights:     rights,
		VAT:        vat,
		Total:      commission + rights + vat,
	}
	return breakdown.Total, breakdown
}

// CaucionFee computes the arancel charged on a caución: an annualized
// percentage over monto, prorated by tenor.
func (f *FeeCalculator) CaucionFee(monto float64, tenorDias int, tipo models.TipoCaucion) float64 {
	pct := f.cfg.CaucionArancelColocadoraPct
	if tipo == models.CaucionTomadora {
		pct = f.cfg.CaucionArancelTomadoraPct
	}
	return monto * pct / 100 * float64(tenorDias) / 365
}

// EffectiveRate returns the folded fee rate (as a percentage of gross) for a
// category, for report display.
func (f *FeeCalculator) EffectiveRate(category string) float64 {
	rate := f.cfg.CommissionPct + f.cfg.RightsPct[category]
	if vatCategories[category] {
		rate *= 1 + f.cfg.VATRate
	}
	return rate
}

// String implements fmt.Stringer for debug logging.
func (f *FeeCalculator) String() string {
	return fmt.Sprintf("FeeCalculator(commission=%.3f%%, vat=%.2f)", f.cfg.CommissionPct, f.cfg.VATRate)
}
