package logging

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// RedactToken masks a channel token for logging, keeping a short prefix so
// distinct tokens remain distinguishable in logs.
func RedactToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 6 {
		return RedactedValue
	}
	return token[:4] + RedactedValue
}
