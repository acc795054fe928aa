// Package sanitize normalizes phone numbers and UTM parameter values
// before they are stored or forwarded to Kommo.
package sanitize

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned when a phone number does not normalize to
// 10-15 digits.
var ErrInvalidPhone = errors.New("invalid phone number")

const maxUTMLength = 200

// Phone strips a raw phone number down to digits and a single leading
// "+", adding the "+" when missing. The result must carry between 10 and
// 15 digits.
func Phone(raw string) (string, error) {
	digits := digitsOf(raw)
	if len(digits) < 10 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}

	return "+" + digits, nil
}

// PhoneLenient normalizes like Phone but never rejects. Error paths
// still need a usable WhatsApp link out of whatever the caller sent.
func PhoneLenient(raw string) string {
	return "+" + digitsOf(raw)
}

func digitsOf(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UTMParam cleans a raw UTM query value. It returns nil for empty input
// and for values still carrying unresolved {{...}} template markers,
// which means the traffic source never substituted the placeholder and
// the value must not be attributed.
func UTMParam(raw string) *string {
	if raw == "" {
		return nil
	}
	if strings.Contains(raw, "{{") || strings.Contains(raw, "}}") {
		return nil
	}

	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'':
			return -1
		}
		return r
	}, cleaned)

	if runes := []rune(cleaned); len(runes) > maxUTMLength {
		cleaned = string(runes[:maxUTMLength])
	}

	if cleaned == "" {
		return nil
	}
	return &cleaned
}
