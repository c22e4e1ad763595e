package enrich

import (
	"regexp"
	"strconv"
	"strings"
)

var nonDigit = regexp.MustCompile(`[^0-9]`)

// FormatStrikeToken places the decimal point in a raw strike token by digit
// position instead of float parsing, so "47343" with 1 decimal becomes
// exactly 4734.3. The token is reduced to its digits, left-padded with zeros
// to decimals+1 characters, and the point inserted decimals characters from
// the end. With decimals <= 0 the digit string is the integer value.
// Returns the numeric value and the formatted string.
func FormatStrikeToken(rawToken string, decimals int) (float64, string) {
	digits := nonDigit.ReplaceAllString(rawToken, "")
	if digits == "" {
		return 0, ""
	}

	if decimals <= 0 {
		value, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return 0, ""
		}
		return value, digits
	}

	if len(digits) < decimals+1 {
		digits = strings.Repeat("0", decimals+1-len(digits)) + digits
	}
	cut := len(digits) - decimals
	formatted := digits[:cut] + "." + digits[cut:]

	value, err := strconv.ParseFloat(formatted, 64)
	if err != nil {
		return 0, ""
	}
	return value, formatted
}
