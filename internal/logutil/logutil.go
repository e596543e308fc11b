// Package logutil formats API traffic for logs without leaking credentials.
package logutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// IsSensitiveLogField returns true when a key likely contains sensitive data.
func IsSensitiveLogField(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, "_", "")

	switch {
	case normalized == "authorization":
		return true
	case strings.Contains(normalized, "token"):
		return true
	case strings.Contains(normalized, "secret"):
		return true
	case strings.Contains(normalized, "password"):
		return true
	case strings.Contains(normalized, "apikey"):
		return true
	case strings.Contains(normalized, "cookie"):
		return true
	case strings.Contains(normalized, "auth"):
		return true
	case normalized == "cvc", strings.Contains(normalized, "cardnumber"):
		return true
	default:
		return false
	}
}

// RedactHeaderValue redacts a header value when the key looks sensitive.
func RedactHeaderValue(key, value string) string {
	if IsSensitiveLogField(key) {
		return "[REDACTED]"
	}
	return value
}

// FormatHeadersForLog returns stable, redacted header text for logs.
func FormatHeadersForLog(headers http.Header) string {
	if len(headers) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		values := headers.Values(k)
		if len(values) == 0 {
			parts = append(parts, fmt.Sprintf("%s=<empty>", strings.ToLower(k)))
			continue
		}

		redacted := make([]string, len(values))
		for i, v := range values {
			redacted[i] = RedactHeaderValue(k, v)
		}
		parts = append(parts, fmt.Sprintf("%s=%q", strings.ToLower(k), strings.Join(redacted, ", ")))
	}
	return strings.Join(parts, "; ")
}

// RedactBodyForLog redacts sensitive fields from JSON and form payloads;
// other bodies are returned as-is.
func RedactBodyForLog(contentType string, body []byte) string {
	text := string(body)
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "x-www-form-urlencoded") {
		return redactForm(text)
	}
	if !strings.Contains(ct, "json") {
		return text
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return text
	}

	var redact func(v any)
	redact = func(v any) {
		switch typed := v.(type) {
		case map[string]any:
			for k, child := range typed {
				if IsSensitiveLogField(k) {
					typed[k] = "[REDACTED]"
					continue
				}
				redact(child)
			}
		case []any:
			for _, child := range typed {
				redact(child)
			}
		}
	}

	redact(payload)
	safeJSON, err := json.Marshal(payload)
	if err != nil {
		return text
	}
	return string(safeJSON)
}

// FormatBodyForLog truncates and redacts body text for safe logging.
func FormatBodyForLog(contentType string, body []byte, maxBytes int, truncated bool) string {
	if len(body) == 0 {
		return ""
	}
	textBytes := body
	if maxBytes > 0 && len(textBytes) > maxBytes {
		textBytes = []byte(Truncate(string(body), maxBytes, ""))
		truncated = true
	}
	text := RedactBodyForLog(contentType, textBytes)
	if truncated {
		return text + " [truncated]"
	}
	return text
}

// TruncateForLog returns a single-line truncated preview for unstructured values.
func TruncateForLog(value string, maxChars int) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	normalized := strings.ReplaceAll(trimmed, "\n", "\\n")
	return Truncate(normalized, maxChars, "... [truncated]")
}

// Truncate cuts s to at most maxBytes bytes without splitting a UTF-8 rune,
// appending suffix when anything was cut. maxBytes <= 0 disables the cut.
func Truncate(s string, maxBytes int, suffix string) string {
	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}

// RedactQueryForLog encodes query with sensitive parameters redacted.
func RedactQueryForLog(query url.Values) string {
	if len(query) == 0 {
		return ""
	}
	return redactForm(query.Encode())
}

func redactForm(text string) string {
	values, err := url.ParseQuery(text)
	if err != nil {
		return text
	}
	for k := range values {
		if IsSensitiveLogField(k) {
			values[k] = []string{"[REDACTED]"}
		}
	}
	// Encode sorts by key.
	return values.Encode()
}
