// Package redact scrubs credentials from CLI output: the Dashgram access
// key, the webhook secret token, bearer headers and Telegram bot tokens.
package redact

import (
	"regexp"
	"strings"
	"sync"
)

// Placeholder replaces every redacted value.
const Placeholder = "***REDACTED***"

// secretKeyPattern matches map keys that hold credentials.
var secretKeyPattern = regexp.MustCompile(`(?i)(secret|token|password|access_key|api_key|credential)`)

// Redactor replaces known secrets in strings and maps. It is safe for
// concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// New returns a Redactor loaded with DefaultPatterns and the given literal
// secrets. Empty secrets are ignored.
func New(secrets ...string) *Redactor {
	r := &Redactor{patterns: DefaultPatterns()}
	for _, s := range secrets {
		r.AddLiteral(s)
	}
	return r
}

// AddLiteral registers a secret value to redact wherever it appears.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// String redacts s.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns, literals := r.patterns, r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		s = strings.ReplaceAll(s, lit, Placeholder)
	}
	for _, p := range patterns {
		s = p.ReplaceAllString(s, Placeholder)
	}
	return s
}

// Map redacts m in place. String values under credential-like keys are
// replaced outright; other strings are scanned.
func (r *Redactor) Map(m map[string]any) {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			if val != "" && secretKeyPattern.MatchString(k) {
				m[k] = Placeholder
			} else {
				m[k] = r.String(val)
			}
		case map[string]any:
			r.Map(val)
		case []any:
			for _, item := range val {
				if sub, ok := item.(map[string]any); ok {
					r.Map(sub)
				}
			}
		}
	}
}

// DefaultPatterns returns the credential formats redacted without being
// registered.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Authorization header values.
		regexp.MustCompile(`Bearer [A-Za-z0-9._~+/=-]+`),
		// Telegram bot tokens, e.g. in api.telegram.org/bot<token>/ URLs.
		regexp.MustCompile(`[0-9]{6,}:[A-Za-z0-9_-]{30,}`),
	}
}
