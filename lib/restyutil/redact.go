package restyutil

import (
	"net/http"
	"regexp"
)

const redacted = "[redacted]"

var sensitiveFormField = regexp.MustCompile(`(?i)((?:^|&)[^=&]*(?:password|token|csrf)[^=&]*=)[^&]*`)

// RedactForm masks the values of credential and token fields in an
// urlencoded form body, other bodies are returned as they are.
func RedactForm(body string) string {
	return sensitiveFormField.ReplaceAllString(body, "${1}"+redacted)
}

// RedactHeader masks the value of headers that carry session state.
func RedactHeader(name, value string) string {
	switch http.CanonicalHeaderKey(name) {
	case "Cookie", "Set-Cookie", "X-Csrf-Token", "Authorization":
		return redacted
	}
	return value
}
