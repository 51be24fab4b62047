package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"card",
	"cvv",
	"cvc",
	"secret",
	"password",
	"token",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// Card numbers are 13 to 19 digits, optionally grouped by spaces or dashes.
const (
	minCardDigits = 13
	maxCardDigits = 19
)

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	// Card-like values are masked to their last four digits whatever the
	// key. This takes priority over key-based detection.
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if IsCardNumber(strVal) {
			return slog.String(a.Key, MaskCardNumber(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// IsCardNumber reports whether value looks like a payment card number.
func IsCardNumber(value string) bool {
	digits := 0
	for i := 0; i < len(value); i++ {
		switch c := value[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == ' ' || c == '-':
			if i == 0 || i == len(value)-1 {
				return false
			}
		default:
			return false
		}
	}
	return digits >= minCardDigits && digits <= maxCardDigits
}

// MaskCardNumber keeps the last four digits of a card number.
// Format: "************1234"
func MaskCardNumber(value string) string {
	var digits strings.Builder
	for i := 0; i < len(value); i++ {
		if c := value[i]; c >= '0' && c <= '9' {
			digits.WriteByte(c)
		}
	}
	d := digits.String()
	if len(d) <= 4 {
		return strings.Repeat("*", len(d))
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}

// RedactString manually redacts a string value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	if IsCardNumber(value) {
		return MaskCardNumber(value)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	if keyLower == "pan" || strings.HasSuffix(keyLower, "_pan") {
		return true
	}
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
