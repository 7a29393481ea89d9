// Package headers normalizes and classifies browser-enforced security headers.
//
// Normalization produces a canonical string per mechanism used only to test
// whether two observed values are syntactically equal. Classification maps an
// observed value to a totally ordered security level per mechanism. Both are
// pure functions: malformed input degrades to the weakest classification and
// never produces an error.
package headers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Missing is the canonical form of a header that was not present at all.
const Missing = "<MISSING>"

// Header names of the mechanisms this package understands.
const (
	HeaderHSTS              = "Strict-Transport-Security"
	HeaderXFO               = "X-Frame-Options"
	HeaderCSP               = "Content-Security-Policy"
	HeaderPermissionsPolicy = "Permissions-Policy"
	HeaderReferrerPolicy    = "Referrer-Policy"
	HeaderCOOP              = "Cross-Origin-Opener-Policy"
	HeaderCORP              = "Cross-Origin-Resource-Policy"
	HeaderCOEP              = "Cross-Origin-Embedder-Policy"
)

// CSP use-case views produced by NormalizeAll. The suffix selects the
// directives relevant to one of the three independent CSP use-cases.
const (
	ViewCSPXSS = HeaderCSP + "::XSS"
	ViewCSPFA  = HeaderCSP + "::FA"
	ViewCSPTLS = HeaderCSP + "::TLS"
)

// RelevantHeaders lists the response headers recorded and analyzed per
// observation.
var RelevantHeaders = []string{
	HeaderHSTS,
	HeaderXFO,
	HeaderCSP,
	HeaderPermissionsPolicy,
	HeaderReferrerPolicy,
	HeaderCOOP,
	HeaderCORP,
	HeaderCOEP,
}

// Mechanisms lists every per-mechanism view emitted by NormalizeAll, including
// the three CSP use-case views.
var Mechanisms = []string{
	HeaderHSTS,
	HeaderXFO,
	ViewCSPXSS,
	ViewCSPFA,
	ViewCSPTLS,
	HeaderCSP,
	HeaderPermissionsPolicy,
	HeaderReferrerPolicy,
	HeaderCOOP,
	HeaderCORP,
	HeaderCOEP,
}

// Headers is an immutable-by-convention, case-insensitive header name → value
// mapping for one observation. Iteration order is irrelevant.
type Headers struct {
	values map[string]string
}

// NewHeaders returns an empty Headers value.
func NewHeaders() Headers {
	return Headers{values: make(map[string]string)}
}

// FromMap builds a Headers value from a plain map.
func FromMap(m map[string]string) Headers {
	h := NewHeaders()
	for name, value := range m {
		h.Set(name, value)
	}
	return h
}

// FromHTTP builds a Headers value from a net/http header, keeping only the
// first value of each header.
func FromHTTP(raw http.Header) Headers {
	h := NewHeaders()
	for name, values := range raw {
		if len(values) > 0 {
			h.Set(name, values[0])
		}
	}
	return h
}

// Set stores a header value, replacing any previous value under a
// differently-cased name.
func (h Headers) Set(name, value string) {
	h.values[strings.ToLower(name)] = value
}

// Get returns the value for name, or the empty string.
func (h Headers) Get(name string) string {
	return h.values[strings.ToLower(name)]
}

// GetDefault returns the value for name, or def if the header is absent.
func (h Headers) GetDefault(name, def string) string {
	if value, ok := h.values[strings.ToLower(name)]; ok {
		return value
	}
	return def
}

// Has reports whether the header is present, ignoring case.
func (h Headers) Has(name string) bool {
	_, ok := h.values[strings.ToLower(name)]
	return ok
}

// Len returns the number of distinct headers.
func (h Headers) Len() int { return len(h.values) }

// Names returns the stored (lowercased) header names, sorted.
func (h Headers) Names() []string {
	names := make([]string, 0, len(h.values))
	for name := range h.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the underlying mapping with lowercased names.
func (h Headers) Map() map[string]string {
	m := make(map[string]string, len(h.values))
	for name, value := range h.values {
		m[name] = value
	}
	return m
}

// MarshalJSON encodes the headers as a plain JSON object.
func (h Headers) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.values)
}

// UnmarshalJSON decodes a JSON object into a case-insensitive Headers value.
func (h *Headers) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*h = FromMap(m)
	return nil
}
