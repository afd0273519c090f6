package application

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// currencyFormat renders thousands separators and two decimals.
const currencyFormat = "#,###.##"

// ParseAmount converts a raw credit value into a float. Empty and nil values
// are zero. ok is false when raw is not a finite number or numeric string.
func ParseAmount(raw any) (amount float64, ok bool) {
	switch v := raw.(type) {
	case nil:
		return 0, true
	case float64:
		amount = v
	case float32:
		amount = float64(v)
	case int:
		amount = float64(v)
	case int64:
		amount = float64(v)
	case json.Number:
		return ParseAmount(string(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		amount = f
	default:
		return 0, false
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false
	}
	return amount, true
}

// FormatCurrencyValue formats a raw credit value for display, for example
// 1234 becomes "1,234.00". Values that do not parse format as zero.
func FormatCurrencyValue(raw any) string {
	amount, _ := ParseAmount(raw)
	return humanize.FormatFloat(currencyFormat, amount)
}
