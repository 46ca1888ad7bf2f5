package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonNumericRegex = regexp.MustCompile(`[^\d,.\-]`)
var numericLikeRegex = regexp.MustCompile(`^-?\d+(?:[.,]\d+)?$`)

// ParseDecimal converte um valor de célula em decimal.
// Com vírgula e ponto presentes, o separador que aparece por último é o decimal;
// só com vírgula, a vírgula é o decimal. Qualquer falha devolve zero.
func ParseDecimal(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case int32:
		return decimal.NewFromInt(int64(v))
	case string:
		return parseDecimalString(v)
	default:
		return decimal.Zero
	}
}

func parseDecimalString(val string) decimal.Decimal {
	s := nonNumericRegex.ReplaceAllString(strings.TrimSpace(val), "")
	if s == "" {
		return decimal.Zero
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalOrNil devolve nil para célula vazia e ParseDecimal caso contrário.
func DecimalOrNil(raw any) *decimal.Decimal {
	if CellString(raw) == "" {
		return nil
	}
	d := ParseDecimal(raw)
	return &d
}

// IsNumericLike reports whether a cell holds a number or a plain numeric string.
func IsNumericLike(raw any) bool {
	switch v := raw.(type) {
	case float64, float32, int, int64, int32, decimal.Decimal:
		return true
	case string:
		return numericLikeRegex.MatchString(strings.TrimSpace(v))
	default:
		return false
	}
}
