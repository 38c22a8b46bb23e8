package normalize

import "regexp"

// secretPattern pairs a detector with a label used for logging/metrics.
type secretPattern struct {
	name string
	re   *regexp.Regexp
}

// Ordered from most to least specific so broad patterns never mangle a match a
// narrower one should own.
var secretPatterns = []secretPattern{
	{"private_key_block", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`)},
	{"connection_string", regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s:@/]+:[^\s@]+@[^\s]+`)},
	{"credential_assignment", regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?key|secret[_-]?key|secret|token|password|passwd|pwd)\b\s*[:=]\s*[^\s,;]+`)},
	{"aws_access_key", regexp.MustCompile(`\bAKIA[0-9A-Z]{8,}\b`)},
	{"github_token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{16,}\b`)},
	{"bearer_token", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]+=*`)},
	{"jwt", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\b`)},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"ipv4", regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)},
}

const redactedPlaceholder = "[redacted]"

// ScrubSecrets strips credential-like substrings from free text and reports how
// many were removed. Detection is informational: the field is redacted, never
// surfaced as a user-facing error.
func ScrubSecrets(text string) (string, int) {
	if text == "" {
		return "", 0
	}
	redactions := 0
	for _, p := range secretPatterns {
		text = p.re.ReplaceAllStringFunc(text, func(string) string {
			redactions++
			recordSecretRedacted(p.name)
			return redactedPlaceholder
		})
	}
	return text, redactions
}
