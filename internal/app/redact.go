package app

import "strings"

// sensitiveHeaders is a list of headers that are redacted in history when
// redaction is enabled
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	// Session and token headers
	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	// AWS credentials
	"x-amz-security-token": true,
	"x-amz-credential":     true,
	"x-amz-signature":      true,

	// Other common auth headers
	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

const redacted = "[REDACTED]"

// FilterSensitiveHeaders returns a copy of headers with sensitive values redacted
func FilterSensitiveHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}

	filtered := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitiveHeaders[strings.ToLower(k)] {
			filtered[k] = redacted
		} else {
			filtered[k] = v
		}
	}
	return filtered
}

// sensitiveBodyPatterns contains patterns that suggest sensitive data in request bodies
var sensitiveBodyPatterns = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"private_key", "privatekey",
	"credit_card", "creditcard", "card_number",
	"ssn", "social_security",
	"access_token", "refresh_token",
	"client_secret", "auth",
}

// LooksSensitive reports whether a request body might contain credentials
func LooksSensitive(body string) bool {
	if body == "" {
		return false
	}
	lower := strings.ToLower(body)
	for _, pattern := range sensitiveBodyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
