package enrich

import (
	"regexp"
	"strings"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/utils"
)

// Row fields inspected for candidate tokens, in trust order.
var tokenFields = []string{"symbol", "security_id", "instrument", "description"}

var (
	dirtySymbol  = regexp.MustCompile(`[0-9./_-]`)
	leadingAlpha = regexp.MustCompile(`^[A-Z]+`)
	separators   = regexp.MustCompile(`[./_-]`)
)

// Resolver enriches raw rows against a symbol-configuration map. It carries
// no cross-run state; build one per pipeline run from the freshly loaded
// configuration.
type Resolver struct {
	byPrefix map[string]models.SymbolConfig
}

// NewResolver indexes the configured symbols by prefix.
func NewResolver(configs []models.SymbolConfig) *Resolver {
	byPrefix := make(map[string]models.SymbolConfig)
	for _, cfg := range configs {
		for _, prefix := range cfg.AllPrefixes() {
			byPrefix[strings.ToUpper(prefix)] = cfg
		}
	}
	return &Resolver{byPrefix: byPrefix}
}

// strategy returns a resolved value or "" when it has no information. Each
// resolution chain is an ordered strategy list, first non-empty wins.
type strategy func() string

func firstNonEmpty(strategies ...strategy) string {
	for _, s := range strategies {
		if v := s(); v != "" {
			return v
		}
	}
	return ""
}

// EnrichRow resolves the authoritative symbol, option type, strike and
// expiration for one validated raw row.
func (r *Resolver) EnrichRow(row models.RawRow) models.EnrichedOperation {
	token, sourceToken := r.findToken(row)

	explicitSymbol := strings.ToUpper(strings.TrimSpace(row["symbol"]))

	// An explicit symbol is trusted only when it looks like a plain ticker.
	// Option-ticker-like symbols (digits or separators) defer to the token.
	symbol := firstNonEmpty(
		func() string {
			if explicitSymbol != "" && !dirtySymbol.MatchString(explicitSymbol) {
				return explicitSymbol
			}
			return ""
		},
		func() string {
			if token != nil {
				return token.Symbol
			}
			return ""
		},
		func() string { return structuredSymbol(row) },
		func() string { return explicitSymbol },
	)

	expiration := firstNonEmpty(
		func() string { return strings.ToUpper(strings.TrimSpace(row["expiration"])) },
		func() string {
			if token != nil && token.Expiration != models.ExpirationUnknown {
				return token.Expiration
			}
			return ""
		},
		func() string { return structuredExpiration(row) },
	)
	if expiration == "" {
		expiration = models.ExpirationNone
	}

	optionType := firstNonEmpty(
		func() string { return normalizeOptionType(row["option_type"]) },
		func() string {
			if token != nil {
				return token.OptionType
			}
			return ""
		},
	)
	if optionType == "" {
		optionType = models.TypeUnknown
	}

	var strike *float64
	if v, err := utils.ParseDecimal(row["strike"]); err == nil && v != 0 {
		strike = &v
	} else if token != nil {
		v := token.Strike
		strike = &v
	}

	meta := models.EnrichmentMeta{
		DetectedFromToken: token != nil,
		SourceToken:       sourceToken,
	}

	// Prefix re-mapping: a configured root symbol takes over the output
	// symbol and recomputes the strike's decimal placement.
	if token != nil {
		if cfg, ok := r.byPrefix[token.Symbol]; ok {
			symbol = cfg.Symbol
			meta.PrefixRule = token.Symbol
			strike = r.placeStrike(cfg, expiration, token.StrikeToken, &meta)
		}
	}

	return models.EnrichedOperation{
		OrderID:    strings.TrimSpace(row["order_id"]),
		Symbol:     symbol,
		Expiration: expiration,
		Strike:     strike,
		OptionType: optionType,
		Side:       strings.ToUpper(strings.TrimSpace(row["side"])),
		Meta:       meta,
	}
}

// findToken tries every whitespace-separated candidate from the token fields
// against the token parser; the first successful parse wins.
func (r *Resolver) findToken(row models.RawRow) (*ParsedToken, string) {
	for _, field := range tokenFields {
		value := row[field]
		if value == "" {
			continue
		}
		for _, candidate := range tokenize(value) {
			if parsed := ParseToken(candidate); parsed != nil {
				return parsed, candidate
			}
		}
	}
	return nil, ""
}

func tokenize(value string) []string {
	return strings.FieldsFunc(value, func(c rune) bool {
		return c == ' ' || c == '\t' || c == ',' || c == '/' || c == '(' || c == ')'
	})
}

// placeStrike recomputes strike decimal placement using, in priority order,
// a per-strike-token override, the matched expiration's decimal count, then
// the symbol default.
func (r *Resolver) placeStrike(cfg models.SymbolConfig, expiration, strikeToken string, meta *models.EnrichmentMeta) *float64 {
	decimals := cfg.DecimalsDefault()
	if expCfg, ok := matchExpiration(cfg, expiration); ok {
		for _, override := range expCfg.Overrides {
			if override.Raw == strikeToken {
				if v, err := utils.ParseDecimal(override.Formatted); err == nil {
					return &v
				}
			}
		}
		decimals = expCfg.Decimals
	}
	value, _ := FormatStrikeToken(strikeToken, decimals)
	meta.StrikeDecimals = &decimals
	return &value
}

// matchExpiration finds the expiration configuration for a resolved
// expiration code, matching the code itself or any of its suffixes.
func matchExpiration(cfg models.SymbolConfig, expiration string) (models.ExpirationConfig, bool) {
	expiration = strings.ToUpper(expiration)
	if expCfg, ok := cfg.Expirations[expiration]; ok {
		return expCfg, true
	}
	for _, expCfg := range cfg.Expirations {
		for _, suffix := range expCfg.Suffixes {
			if strings.ToUpper(suffix) == expiration {
				return expCfg, true
			}
		}
	}
	return models.ExpirationConfig{}, false
}

// structuredSymbol extracts the leading letters of the first delimiter
// segment of security_id or instrument.
func structuredSymbol(row models.RawRow) string {
	for _, field := range []string{"security_id", "instrument"} {
		value := strings.ToUpper(strings.TrimSpace(row[field]))
		if value == "" {
			continue
		}
		segment := separators.Split(value, 2)[0]
		if m := leadingAlpha.FindString(segment); m != "" {
			return m
		}
	}
	return ""
}

// structuredExpiration takes the trailing delimiter segment of security_id or
// instrument when one exists.
func structuredExpiration(row models.RawRow) string {
	for _, field := range []string{"security_id", "instrument"} {
		value := strings.ToUpper(strings.TrimSpace(row[field]))
		if value == "" {
			continue
		}
		segments := separators.Split(value, -1)
		if len(segments) < 2 {
			continue
		}
		last := nonAlnum.ReplaceAllString(segments[len(segments)-1], "")
		if last != "" {
			return last
		}
	}
	return ""
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
