package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Input length limits, counted in characters after trimming
const (
	MinInputLength = 1
	MaxInputLength = 500
)

// Rejection reasons shown to the user
const (
	reasonEmpty    = "Input không được để trống"
	reasonTooShort = "Input quá ngắn (tối thiểu 1 ký tự)"
	reasonTooLong  = "Input quá dài (tối đa 500 ký tự)"
	reasonUnsafe   = "Input chứa nội dung không hợp lệ"
)

var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*/?\s*script\b`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon[a-z]{3,}\s*=`),
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
	regexp.MustCompile(`(?i)\bdelete\s+from\b`),
	regexp.MustCompile(`(?i)\binsert\s+into\b`),
	regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`),
}

// ValidateInput trims raw and checks it against the length limits and the
// injection denylist. It returns the trimmed message or an *InputError.
func ValidateInput(raw string) (string, error) {
	if raw == "" {
		return "", &InputError{Reason: reasonEmpty}
	}

	trimmed := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(trimmed)
	if n < MinInputLength {
		return "", &InputError{Reason: reasonTooShort}
	}
	if n > MaxInputLength {
		return "", &InputError{Reason: reasonTooLong}
	}

	for _, p := range suspiciousPatterns {
		if p.MatchString(trimmed) {
			return "", &InputError{Reason: reasonUnsafe}
		}
	}

	return trimmed, nil
}
