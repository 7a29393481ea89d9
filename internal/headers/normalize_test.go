package headers

import (
	"strings"
	"testing"
)

func TestNormalizeIdempotentAndCaseInsensitive(t *testing.T) {
	normalizers := map[string]func(string) string{
		"hsts":        NormalizeHSTS,
		"xfo":         NormalizeXFO,
		"csp":         func(v string) string { return NormalizeCSP(v, nil) },
		"permissions": NormalizePermissionsPolicy,
		"referrer":    NormalizeReferrerPolicy,
		"coop":        NormalizeCOOP,
		"corp":        NormalizeCORP,
		"coep":        NormalizeCOEP,
	}

	inputs := map[string][]string{
		"hsts": {
			"max-age=31536000; includeSubDomains; preload",
			"max-age=100, max-age=200",
			"",
		},
		"xfo": {"DENY", "SAMEORIGIN, DENY", ""},
		"csp": {
			"script-src 'self' 'nonce-R4nd0mV4lu3+/=' https://cdn.example.com; default-src 'none'",
			"default-src 'self'; report-uri https://report.example.com/endpoint",
			"script-src 'sha256-AbCdEf123+/=' 'unsafe-inline', frame-ancestors 'none'",
			"",
		},
		"permissions": {`geolocation=(self "https://example.com"), camera=*`, ""},
		"referrer":    {"no-referrer, strict-origin", ""},
		"coop":        {`same-origin; report-to="default"`, ""},
		"corp":        {"  same-origin  ", ""},
		"coep":        {`require-corp; report-to="default"`, ""},
	}

	for mechanism, normalize := range normalizers {
		for _, input := range inputs[mechanism] {
			once := normalize(input)
			if got := normalize(once); got != once {
				t.Errorf("%s: not idempotent for %q: %q != %q", mechanism, input, got, once)
			}
			if got := normalize(strings.ToUpper(input)); got != once {
				t.Errorf("%s: not case-insensitive for %q: %q != %q", mechanism, input, got, once)
			}
		}
	}
}

func TestNormalizeHSTS(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "Directives sorted and lowercased",
			value: "Max-Age=31536000; IncludeSubDomains; Preload",
			want:  "includesubdomains;max-age=31536000;preload",
		},
		{
			name:  "Only first header instance considered",
			value: "max-age=100, max-age=200; includeSubDomains",
			want:  "max-age=100",
		},
		{
			name:  "Whitespace trimmed",
			value: "  max-age=600 ;  preload ",
			want:  "max-age=600;preload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeHSTS(tt.value); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeXFO(t *testing.T) {
	if got := NormalizeXFO("SAMEORIGIN, DENY"); got != "deny,sameorigin" {
		t.Errorf("Expected %q, got %q", "deny,sameorigin", got)
	}
}

func TestNormalizeCSP(t *testing.T) {
	tests := []struct {
		name            string
		value           string
		validDirectives []string
		want            string
	}{
		{
			name:  "Directives and tokens sorted",
			value: "script-src https://cdn.example.com 'self'; default-src 'none'",
			want:  "default-src 'none';script-src 'self' https://cdn.example.com",
		},
		{
			name:  "Nonce redacted",
			value: "script-src 'nonce-R4nd0mV4lu3+/=' 'self'",
			want:  "script-src 'nonce-value' 'self'",
		},
		{
			name:  "Hash redacted",
			value: "script-src 'sha256-AbCdEf123+/='",
			want:  "script-src 'sha256-value'",
		},
		{
			name:  "Reporting endpoint redacted",
			value: "default-src 'self'; report-uri https://report.example.com/session/1234",
			want:  "default-src 'self';report-uri report_uri",
		},
		{
			name:  "Policies sorted",
			value: "script-src 'self', default-src 'none'",
			want:  "default-src 'none',script-src 'self'",
		},
		{
			name:            "Use-case view keeps only selected directives",
			value:           "script-src 'self'; frame-ancestors 'none'; img-src *",
			validDirectives: []string{"frame-ancestors"},
			want:            "frame-ancestors 'none'",
		},
		{
			name:  "Empty value",
			value: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCSP(tt.value, tt.validDirectives); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizePermissionsPolicy(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "Allowlists sorted, directives sorted",
			value: `geolocation=(self "https://example.com"), camera=*`,
			want:  `camera=*,geolocation=("https://example.com" self)`,
		},
		{
			name:  "Duplicate allowlist entries collapse",
			value: "fullscreen=(self self)",
			want:  "fullscreen=(self)",
		},
		{
			name:  "Malformed entries dropped",
			value: "geolocation self, camera=()",
			want:  "camera=()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePermissionsPolicy(tt.value); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalizeKeepsOperativeOrder(t *testing.T) {
	// Referrer-Policy token order and COOP/COEP segment order are semantic:
	// the classifier keeps the last valid referrer token and the first
	// COOP/COEP segment.
	if got := NormalizeReferrerPolicy("Strict-Origin, No-Referrer"); got != "strict-origin,no-referrer" {
		t.Errorf("Expected token order preserved, got %q", got)
	}
	if got := NormalizeCOOP(`Same-Origin; report-to="default"`); got != `same-origin;report-to="default"` {
		t.Errorf("Expected segment order preserved, got %q", got)
	}
}

func TestNormalizeAll(t *testing.T) {
	h := FromMap(map[string]string{
		"strict-transport-security": "max-age=31536000; includeSubDomains",
		"CONTENT-SECURITY-POLICY":   "script-src 'self'; frame-ancestors 'none'; upgrade-insecure-requests",
	})

	normalized := NormalizeAll(h)

	if got := normalized.Get(HeaderHSTS); got != "includesubdomains;max-age=31536000" {
		t.Errorf("Unexpected HSTS canonical form: %q", got)
	}
	if got := normalized.Get(ViewCSPXSS); got != "script-src 'self'" {
		t.Errorf("Unexpected CSP XSS view: %q", got)
	}
	if got := normalized.Get(ViewCSPFA); got != "frame-ancestors 'none'" {
		t.Errorf("Unexpected CSP FA view: %q", got)
	}
	if got := normalized.Get(ViewCSPTLS); got != "upgrade-insecure-requests" {
		t.Errorf("Unexpected CSP TLS view: %q", got)
	}
	for _, absent := range []string{HeaderXFO, HeaderReferrerPolicy, HeaderCOOP, HeaderCORP, HeaderCOEP, HeaderPermissionsPolicy} {
		if got := normalized.Get(absent); got != Missing {
			t.Errorf("Expected %s sentinel for absent %s, got %q", Missing, absent, got)
		}
	}
	if len(normalized.Names()) != len(Mechanisms) {
		t.Errorf("Expected %d mechanism views, got %d", len(Mechanisms), len(normalized.Names()))
	}
}
