package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthsPT = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "marco": time.March, "abril": time.April,
	"maio": time.May, "junho": time.June, "julho": time.July, "agosto": time.August,
	"setembro": time.September, "outubro": time.October, "novembro": time.November, "dezembro": time.December,
	"jan": time.January, "fev": time.February, "mar": time.March, "abr": time.April,
	"mai": time.May, "jun": time.June, "jul": time.July, "ago": time.August,
	"set": time.September, "out": time.October, "nov": time.November, "dez": time.December,
}

var (
	// "15 de março de 2024 14:30"
	monthNameRegex = regexp.MustCompile(`^\s*(\d{1,2})\s*(?:de\s*)?([a-z]{3,9})\s*(?:de\s*)?(\d{4})(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?\s*$`)
	// "15/03/2024 14:30" ou "15-03-24"
	dayFirstRegex = regexp.MustCompile(`^\s*(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?\s*$`)
	// "2024-03-15 14:30:00"
	isoRegex = regexp.MustCompile(`^\s*(\d{4})-(\d{1,2})-(\d{1,2})(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?\s*$`)
)

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02/01/2006 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// ParseDatetime interpreta uma célula de data/hora no fuso informado.
// Devolve nil quando não reconhece o valor; nil significa "data desconhecida".
func ParseDatetime(raw any, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}

	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		t := v.In(loc)
		return &t
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		t := v.In(loc)
		return &t
	case float64:
		return excelSerialToTime(v, loc)
	case float32:
		return excelSerialToTime(float64(v), loc)
	case int:
		return excelSerialToTime(float64(v), loc)
	case int64:
		return excelSerialToTime(float64(v), loc)
	case string:
		return parseDatetimeString(v, loc)
	default:
		return nil
	}
}

func excelSerialToTime(serial float64, loc *time.Location) *time.Time {
	if math.IsNaN(serial) || math.IsInf(serial, 0) {
		return nil
	}
	days := math.Floor(serial)
	secs := int(math.Round((serial - days) * 86400))
	// base Excel serial -> 1899-12-30
	t := time.Date(1899, time.December, 30+int(days), 0, 0, secs, 0, loc)
	return &t
}

func parseDatetimeString(val string, loc *time.Location) *time.Time {
	s := FoldText(val)
	if s == "" {
		return nil
	}

	if m := monthNameRegex.FindStringSubmatch(s); m != nil {
		if month, ok := monthsPT[m[2]]; ok {
			if t := buildTime(atoi(m[3]), month, atoi(m[1]), m[4], m[5], m[6], loc); t != nil {
				return t
			}
		}
	}

	if m := dayFirstRegex.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if t := buildTime(year, time.Month(atoi(m[2])), atoi(m[1]), m[4], m[5], m[6], loc); t != nil {
			return t
		}
	}

	if m := isoRegex.FindStringSubmatch(s); m != nil {
		if t := buildTime(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), m[4], m[5], m[6], loc); t != nil {
			return t
		}
	}

	trimmed := strings.TrimSpace(val)
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			t = t.In(loc)
			return &t
		}
	}
	return nil
}

// buildTime monta a data e rejeita componentes fora do calendário (ex.: 31/02).
func buildTime(year int, month time.Month, day int, hh, mm, ss string, loc *time.Location) *time.Time {
	hour, minute, second := atoi(hh), atoi(mm), atoi(ss)
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return nil
	}
	if hour > 23 || minute > 59 || second > 59 {
		return nil
	}
	t := time.Date(year, month, day, hour, minute, second, 0, loc)
	if t.Day() != day || t.Month() != month {
		return nil
	}
	return &t
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
