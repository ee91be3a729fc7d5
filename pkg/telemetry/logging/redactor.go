package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// RedactPattern is a custom redaction rule.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Redactor scrubs credentials and patient identifiers from log fields.
type Redactor struct {
	patterns []*redactPattern
}

// redactPattern contains a compiled regex and how to replace a match.
type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
	replace     func(string) string
}

// Built-in pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
	PatternPassword    = "password"
	PatternEmail       = "email"
	PatternSSN         = "ssn"
	PatternPhone       = "phone"
)

// Built-in patterns, applied in order. Bearer tokens go first so the API key
// rule does not split them.
var defaultPatterns = []*redactPattern{
	{
		name:        PatternBearerToken,
		regex:       regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`),
		replacement: "Bearer ***",
	},
	{
		name:        PatternAPIKey,
		regex:       regexp.MustCompile(`(sk-[a-zA-Z0-9\-_]+|hf_[a-zA-Z0-9]+)`),
		replacement: "sk-***",
	},
	{
		name:        PatternPassword,
		regex:       regexp.MustCompile(`(password|passwd|pwd)[:=]\s*[^\s]+`),
		replacement: "$1: ***",
	},
	{
		name:    PatternEmail,
		regex:   regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		replace: RedactEmail,
	},
	{
		name:        PatternSSN,
		regex:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		replacement: "***-**-****",
	},
	{
		name:        PatternPhone,
		regex:       regexp.MustCompile(`\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`),
		replacement: "***-***-****",
	},
}

// sensitiveKeys are field names whose values are always masked.
var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"authorization",
	"ssn", "private_key", "privatekey",
}

// NewRedactor creates a Redactor with the built-in patterns followed by
// custom ones.
func NewRedactor(custom []RedactPattern) (*Redactor, error) {
	r := &Redactor{
		patterns: append([]*redactPattern(nil), defaultPatterns...),
	}

	for _, p := range custom {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p.Name, err)
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}

	return r, nil
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, p := range r.patterns {
		if p.replace != nil {
			redacted = p.regex.ReplaceAllStringFunc(redacted, p.replace)
			continue
		}
		redacted = p.regex.ReplaceAllString(redacted, p.replacement)
	}
	return redacted
}

// RedactAttr redacts a log attribute. Values under sensitive keys are
// masked entirely; other strings and errors are pattern-scrubbed; groups
// are walked recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()

	switch v.Kind() {
	case slog.KindGroup:
		group := v.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}

	case slog.KindString:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, RedactAPIKey(v.String()))
		}
		return slog.String(a.Key, r.RedactString(v.String()))

	default:
		if isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
		if err, ok := v.Any().(error); ok && v.Kind() == slog.KindAny {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
		return slog.Attr{Key: a.Key, Value: v}
	}
}

// isSensitiveKey checks if a key name indicates sensitive data.
func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactEmail redacts an email address partially (shows first char and domain).
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	username := parts[0]
	domain := parts[1]

	if len(username) == 0 {
		return "***@" + domain
	}

	return string(username[0]) + "***@" + domain
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
