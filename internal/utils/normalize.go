package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrMalformedNumber is returned when a numeric token cannot be parsed
var ErrMalformedNumber = errors.New("malformed number")

// NormalizeText returns NFC-composed, lower-cased text with runs of
// whitespace collapsed to a single space.
// Vietnamese input often arrives decomposed (NFD) from some keyboards.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// FoldAccents strips diacritics so "phòng ngủ" and "phong ngu" compare equal
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Map(foldStroke), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func foldStroke(r rune) rune {
	switch r {
	case 'đ':
		return 'd'
	case 'Đ':
		return 'D'
	}
	return r
}

// ParseDecimal parses a number written with either "." or "," separators.
//
//	"50"      -> 50
//	"1,5"     -> 1.5
//	"1.5"     -> 1.5
//	"1,500"   -> 1500   (groups of exactly three digits are thousands)
//	"1.200.000" -> 1200000
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrMalformedNumber)
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '.' })
	if len(parts) == 0 || strings.HasPrefix(s, ",") || strings.HasPrefix(s, ".") ||
		strings.HasSuffix(s, ",") || strings.HasSuffix(s, ".") ||
		strings.Contains(s, ",,") || strings.Contains(s, "..") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}

	var clean string
	switch {
	case len(parts) == 1:
		clean = parts[0]
	case allThousandsGroups(parts[1:]):
		clean = strings.Join(parts, "")
	case len(parts) == 2:
		clean = parts[0] + "." + parts[1]
	default:
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	return v, nil
}

func allThousandsGroups(groups []string) bool {
	for _, g := range groups {
		if len(g) != 3 {
			return false
		}
	}
	return true
}
