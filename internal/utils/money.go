package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatRubles renders a whole-ruble amount with space thousand
// separators, e.g. "12 500 ₽".
func FormatRubles(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%s ₽", sign, formatThousand(n))
}

// ParseRubles parses "12 500 ₽", "12500" or "12,500" into whole rubles.
func ParseRubles(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "₽")
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "руб.")
	replacer := strings.NewReplacer(" ", "", " ", "", " ", "", ",", "")
	s = replacer.Replace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid ruble amount")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(c)
	}
	return out.String()
}
