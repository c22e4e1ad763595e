package models

// StrikeOverride pins the formatted strike for one exact raw strike token,
// bypassing decimal-count rules.
type StrikeOverride struct {
	Raw       string `json:"raw"`
	Formatted string `json:"formatted"`
}

// ExpirationConfig describes one expiration code of a configured symbol.
type ExpirationConfig struct {
	Suffixes  []string         `json:"suffixes"`
	Decimals  int              `json:"decimals"`
	Overrides []StrikeOverride `json:"overrides,omitempty"`
}

// SymbolConfig is one record of the symbol-configuration store. Prefix and
// Prefixes are alternate spellings kept for compatibility with older stored
// records, as are DefaultDecimals and StrikeDefaultDecimals.
type SymbolConfig struct {
	Symbol                string                      `json:"symbol"`
	Prefix                string                      `json:"prefix,omitempty"`
	Prefixes              []string                    `json:"prefixes,omitempty"`
	DefaultDecimals       int                         `json:"defaultDecimals"`
	StrikeDefaultDecimals *int                        `json:"strikeDefaultDecimals,omitempty"`
	Expirations           map[string]ExpirationConfig `json:"expirations"`
}

// AllPrefixes merges the singular and plural prefix fields.
func (c SymbolConfig) AllPrefixes() []string {
	var prefixes []string
	if c.Prefix != "" {
		prefixes = append(prefixes, c.Prefix)
	}
	for _, p := range c.Prefixes {
		if p != "" && p != c.Prefix {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// DecimalsDefault returns the symbol-level default strike decimal count,
// preferring the legacy StrikeDefaultDecimals field when present.
func (c SymbolConfig) DecimalsDefault() int {
	if c.StrikeDefaultDecimals != nil {
		return *c.StrikeDefaultDecimals
	}
	return c.DefaultDecimals
}

// ExpirationSuffixes flattens every configured suffix plus the expiration
// codes themselves, for scope matching.
func (c SymbolConfig) ExpirationSuffixes() []string {
	var suffixes []string
	for code, exp := range c.Expirations {
		suffixes = append(suffixes, code)
		suffixes = append(suffixes, exp.Suffixes...)
	}
	return suffixes
}
