package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCents parses a monetary cell value into int64 cents. Accepts
// Brazilian ("1.234,56") and plain ("1234.56") notations, with or without
// an "R$" prefix.
func ParseCents(s string) (int64, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "R$")
	v = strings.ReplaceAll(v, " ", "")
	if v == "" {
		return 0, fmt.Errorf("empty value")
	}

	neg := strings.HasPrefix(v, "-")
	v = strings.TrimPrefix(v, "-")

	// When both separators appear, the rightmost one is the decimal mark.
	dot := strings.LastIndex(v, ".")
	comma := strings.LastIndex(v, ",")
	sep := byte(0)
	switch {
	case dot >= 0 && comma >= 0:
		if comma > dot {
			sep = ','
		} else {
			sep = '.'
		}
	case comma >= 0:
		sep = ','
	case dot >= 0:
		sep = '.'
	}

	whole, frac := v, ""
	if sep != 0 {
		i := strings.LastIndexByte(v, sep)
		whole, frac = v[:i], v[i+1:]
	}
	// A lone separator kind followed by a three-digit group is thousands
	// notation without a decimal part ("1.234", "1.234.567"), not a
	// truncated decimal. Decimal marks carry one or two digits.
	if sep != 0 && (dot < 0 || comma < 0) && len(frac) == 3 {
		whole, frac = v, ""
	}
	whole = strings.Map(func(r rune) rune {
		if r == '.' || r == ',' {
			return -1
		}
		return r
	}, whole)

	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse value %q: %w", s, err)
	}

	var cents int64
	switch len(frac) {
	case 0:
		cents = 0
	case 1:
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse value %q: %w", s, err)
		}
		cents = f * 10
	default:
		f, err := strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse value %q: %w", s, err)
		}
		cents = f
	}

	total := w*100 + cents
	if neg {
		total = -total
	}
	return total, nil
}

// SplitCents divides total into n parts that differ by at most one cent and
// sum exactly to total. The remainder cents go to the first parts.
func SplitCents(total int64, n int) []int64 {
	parts := make([]int64, n)
	base := total / int64(n)
	rem := total - base*int64(n)
	for i := range parts {
		parts[i] = base
		if int64(i) < rem {
			parts[i]++
		}
	}
	return parts
}

// FormatCents renders cents as a decimal string with two places, for
// exports and log output.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
