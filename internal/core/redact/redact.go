// Package redact scrubs sensitive values from text before it is persisted.
// Redaction is irreversible: credential-shaped values are replaced
// entirely, PII is masked partially so some diagnostic utility remains.
package redact

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
)

// Marker replaces fully redacted values
const Marker = "[REDACTED]"

// Detector pairs a named pattern with a redaction strategy. Credential
// detectors are the high-risk class: if one fails mid-redaction the whole
// input is replaced rather than passed through partially scrubbed.
type Detector struct {
	Name       string
	Pattern    *regexp.Regexp
	Replace    func(match string) string
	Credential bool
}

// Redactor applies an ordered table of detectors to untrusted text.
// Detectors are independent: a string that matches several receives
// redaction from each, in table order, with no short-circuit.
type Redactor struct {
	mu      sync.RWMutex
	builtin []Detector
	custom  []Detector
	count   atomic.Int64
}

// New creates a redactor with the built-in detector table
func New() *Redactor {
	return &Redactor{builtin: builtinDetectors()}
}

// Redact scrubs sensitive substrings from text. It is total: it never
// panics on malformed input, and a failing detector is skipped while the
// rest of the table still runs.
func (r *Redactor) Redact(text string) string {
	redacted, _ := r.RedactCount(text)
	return redacted
}

// RedactCount is Redact plus the number of replacements made on this input
func (r *Redactor) RedactCount(text string) (string, int) {
	if text == "" {
		return text, 0
	}

	r.mu.RLock()
	detectors := make([]Detector, 0, len(r.builtin)+len(r.custom))
	detectors = append(detectors, r.builtin...)
	detectors = append(detectors, r.custom...)
	r.mu.RUnlock()

	total := 0
	result := text
	for _, d := range detectors {
		out, n, err := applyDetector(d, result)
		if err != nil {
			// Fail-open per detector, except for credential classes:
			// there under-redaction is worse than losing the field.
			if d.Credential {
				r.count.Add(1)
				return Marker, total + 1
			}
			continue
		}
		result = out
		total += n
	}
	r.count.Add(int64(total))
	return result, total
}

// Redactions returns the running count of replacements, for auditing
func (r *Redactor) Redactions() int64 {
	return r.count.Load()
}

// AddPattern registers a caller-supplied detector after the built-in
// table. The matched value is fully replaced with the marker.
func (r *Redactor) AddPattern(name, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid redaction pattern %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = append(r.custom, Detector{
		Name:    name,
		Pattern: re,
		Replace: func(string) string { return Marker },
	})
	return nil
}

// RemovePattern drops a custom detector by name. Built-in detectors
// cannot be removed.
func (r *Redactor) RemovePattern(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.custom {
		if d.Name == name {
			r.custom = append(r.custom[:i], r.custom[i+1:]...)
			return true
		}
	}
	return false
}

func applyDetector(d Detector, text string) (out string, n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("detector %s: %v", d.Name, rec)
		}
	}()
	out = d.Pattern.ReplaceAllStringFunc(text, func(match string) string {
		n++
		return d.Replace(match)
	})
	return out, n, nil
}

// builtinDetectors returns the fixed table. Order matters and is part of
// the documented behavior: credential detectors run before PII maskers so
// a value caught by both is fully gone before partial masking applies.
func builtinDetectors() []Detector {
	full := func(string) string { return Marker }

	apiKey := regexp.MustCompile(`\b(?:sk|pk|rk)[-_](?:ant[-_])?[A-Za-z0-9_-]{16,}\b`)
	awsKey := regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
	ghToken := regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{20,}\b`)
	bearer := regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`)
	jwt := regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]*`)
	privateKey := regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?(?:-----END [A-Z ]*PRIVATE KEY-----|\z)`)
	connString := regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqps?)://[^\s"']+`)

	// Assignments keep the label so logs remain debuggable
	assignment := regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api[_-]?key|access[_-]?key|auth[_-]?token|token)(\s*[:=]\s*)["']?[^\s"'&;]+["']?`)
	assignmentReplace := func(match string) string {
		if idx := strings.IndexAny(match, ":="); idx >= 0 {
			return match[:idx+1] + Marker
		}
		return Marker
	}

	email := regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	emailReplace := func(match string) string {
		at := strings.LastIndex(match, "@")
		return "***" + match[at:]
	}

	ipv4 := regexp.MustCompile(`\b(\d{1,3}\.\d{1,3})\.\d{1,3}\.\d{1,3}\b`)
	ipv4Replace := func(match string) string {
		parts := strings.SplitN(match, ".", 3)
		return parts[0] + "." + parts[1] + ".x.x"
	}

	phone := regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)

	return []Detector{
		{Name: "api-key", Pattern: apiKey, Replace: full, Credential: true},
		{Name: "aws-access-key", Pattern: awsKey, Replace: full, Credential: true},
		{Name: "github-token", Pattern: ghToken, Replace: full, Credential: true},
		{Name: "bearer-token", Pattern: bearer, Replace: full, Credential: true},
		{Name: "jwt", Pattern: jwt, Replace: full, Credential: true},
		{Name: "private-key", Pattern: privateKey, Replace: full, Credential: true},
		{Name: "connection-string", Pattern: connString, Replace: full, Credential: true},
		{Name: "secret-assignment", Pattern: assignment, Replace: assignmentReplace, Credential: true},
		{Name: "email", Pattern: email, Replace: emailReplace},
		{Name: "ipv4", Pattern: ipv4, Replace: ipv4Replace},
		{Name: "phone", Pattern: phone, Replace: maskPhone},
	}
}

// maskPhone keeps the leading and trailing digits, masks the middle
func maskPhone(match string) string {
	digits := 0
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	seen := 0
	var b strings.Builder
	for _, r := range match {
		if r < '0' || r > '9' {
			b.WriteRune(r)
			continue
		}
		seen++
		if seen <= 3 || seen > digits-2 {
			b.WriteRune(r)
		} else {
			b.WriteRune('*')
		}
	}
	return b.String()
}
