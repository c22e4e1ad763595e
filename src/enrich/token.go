// Package enrich derives instrument symbol, option type, strike and
// expiration from the ambiguous free-text identifiers of broker CSV exports.
package enrich

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

// tokenPattern decomposes an option ticker like GFGC47343O into root symbol,
// side marker, strike literal and expiration remainder. The pattern and its
// precedence are behavior-defining; do not tweak them.
var tokenPattern = regexp.MustCompile(`^([A-Z0-9]+?)([CV])(\d+(?:\.\d+)?)(.*)$`)

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// ParsedToken is the decomposition of one instrument token.
type ParsedToken struct {
	Symbol      string
	OptionType  string // CALL or PUT
	Strike      float64
	StrikeToken string
	Expiration  string
}

// ParseToken applies the fixed token regex. It returns nil when the token
// does not match; callers must treat nil as "no information", never as an
// error.
func ParseToken(token string) *ParsedToken {
	token = strings.ToUpper(strings.TrimSpace(token))
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return nil
	}

	optionType := models.TypeCall
	if m[2] == "V" {
		optionType = models.TypePut
	}

	strike, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return nil
	}

	return &ParsedToken{
		Symbol:      m[1],
		OptionType:  optionType,
		Strike:      strike,
		StrikeToken: m[3],
		Expiration:  cleanExpiration(m[4]),
	}
}

// cleanExpiration strips a single leading separator and every remaining
// non-alphanumeric character from the token remainder.
func cleanExpiration(rest string) string {
	if len(rest) > 0 && (rest[0] == '.' || rest[0] == '-' || rest[0] == '_') {
		rest = rest[1:]
	}
	rest = nonAlnum.ReplaceAllString(rest, "")
	if rest == "" {
		return models.ExpirationUnknown
	}
	return rest
}
