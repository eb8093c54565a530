package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

var (
	// UUIDs are scrubbed before phone numbers so the digit groups of an id
	// are not mistaken for a phone number.
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
	// ISO dates look like phone numbers to phoneRE; they are kept as is.
	isoDateRE = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// Redactor scrubs obvious PII (ids, e-mail addresses, phone numbers) from
// strings and masks sensitive headers before they reach the logs.
type Redactor struct {
	masked map[string]struct{}
}

// NewRedactor returns a Redactor that masks Authorization, Cookie and
// Set-Cookie plus any extra header names (case-insensitive).
func NewRedactor(extraHeaders ...string) *Redactor {
	r := &Redactor{masked: map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}}
	for _, h := range extraHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.masked[h] = struct{}{}
		}
	}
	return r
}

// String returns s with ids, e-mails and phone numbers replaced.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")

	// Protect dates (filters like from=2026-10-01) from the phone pattern.
	dates := isoDateRE.FindAllString(s, -1)
	s = isoDateRE.ReplaceAllString(s, "\x00")
	s = phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
	for _, d := range dates {
		s = strings.Replace(s, "\x00", d, 1)
	}
	return s
}

// Headers flattens h, masking sensitive headers and scrubbing the rest.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.String(strings.Join(vv, ", "))
	}
	return out
}
