package headers

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

var (
	nonceRegex      *regexp.Regexp
	hashRegex       *regexp.Regexp
	reportRegex     *regexp.Regexp
	permissionRegex *regexp.Regexp
	regexOnce       sync.Once
)

func initRegexes() {
	// Nonces and hashes are per-response random values; reporting endpoints
	// are often session-scoped URLs. All are redacted to fixed placeholders so
	// they do not break syntactic equality across otherwise-identical policies.
	nonceRegex = regexp.MustCompile(`(?i)'nonce-[A-Za-z0-9+/\-_]+={0,2}'`)
	hashRegex = regexp.MustCompile(`(?i)'sha(256|384|512)-[A-Za-z0-9+/\-_]+={0,2}'`)
	reportRegex = regexp.MustCompile(`(?i)report-(uri|to)[^;,]*`)
	permissionRegex = regexp.MustCompile(`^([^=]+)=(\*|\((.*)\))`)
}

// NormalizeHSTS canonicalizes a Strict-Transport-Security value. Only the
// first comma-separated header instance is considered; RFC 6797 leaves
// multiple instances undefined and mandates processing exactly one.
func NormalizeHSTS(value string) string {
	value, _, _ = strings.Cut(strings.ToLower(value), ",")
	tokens := splitTrim(value, ";")
	sort.Strings(tokens)
	return strings.Join(tokens, ";")
}

// NormalizeXFO canonicalizes an X-Frame-Options value.
func NormalizeXFO(value string) string {
	tokens := splitTrim(strings.ToLower(value), ",")
	sort.Strings(tokens)
	return strings.Join(tokens, ",")
}

// NormalizeCSP canonicalizes a Content-Security-Policy value. When
// validDirectives is non-nil, directives outside that set are dropped,
// producing the canonical form of a single use-case view. Nonce, hash, and
// reporting tokens are redacted before tokenizing.
func NormalizeCSP(value string, validDirectives []string) string {
	regexOnce.Do(initRegexes)

	value = nonceRegex.ReplaceAllString(value, "'nonce-VALUE'")
	value = hashRegex.ReplaceAllString(value, "'sha${1}-VALUE'")
	value = reportRegex.ReplaceAllString(value, "report-${1} REPORT_URI")

	var valid map[string]bool
	if validDirectives != nil {
		valid = make(map[string]bool, len(validDirectives))
		for _, name := range validDirectives {
			valid[name] = true
		}
	}

	var normalizedPolicies []string
	for _, policy := range strings.Split(strings.ToLower(value), ",") {
		var normalizedPolicy []string

		for _, directive := range strings.Split(strings.TrimSpace(policy), ";") {
			fields := strings.Fields(directive)
			if len(fields) == 0 {
				continue
			}
			name, tokens := fields[0], fields[1:]
			if valid != nil && !valid[name] {
				continue
			}
			sort.Strings(tokens)
			normalizedPolicy = append(normalizedPolicy, strings.Join(append([]string{name}, tokens...), " "))
		}

		sort.Strings(normalizedPolicy)
		normalizedPolicies = append(normalizedPolicies, strings.Join(normalizedPolicy, ";"))
	}

	sort.Strings(normalizedPolicies)
	return strings.Join(normalizedPolicies, ",")
}

// NormalizePermissionsPolicy canonicalizes a Permissions-Policy value.
// Allowlists other than * are deduplicated and sorted.
func NormalizePermissionsPolicy(value string) string {
	regexOnce.Do(initRegexes)

	var directives []string
	for _, directive := range strings.Split(strings.ToLower(value), ",") {
		match := permissionRegex.FindStringSubmatch(strings.TrimSpace(directive))
		if match == nil {
			continue
		}
		name, allowlist, content := match[1], match[2], match[3]
		if allowlist != "*" {
			allowlist = "(" + strings.Join(sortedSet(strings.Fields(content)), " ") + ")"
		}
		directives = append(directives, name+"="+allowlist)
	}
	sort.Strings(directives)
	return strings.Join(directives, ",")
}

// NormalizeReferrerPolicy canonicalizes a Referrer-Policy value. Token order
// is preserved: classification keeps the last recognized token.
func NormalizeReferrerPolicy(value string) string {
	return strings.Join(splitTrim(strings.ToLower(value), ","), ",")
}

// NormalizeCOOP canonicalizes a Cross-Origin-Opener-Policy value. Segment
// order is preserved: the first segment is the operative directive.
func NormalizeCOOP(value string) string {
	return strings.Join(splitTrim(strings.ToLower(value), ";"), ";")
}

// NormalizeCORP canonicalizes a Cross-Origin-Resource-Policy value.
func NormalizeCORP(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// NormalizeCOEP canonicalizes a Cross-Origin-Embedder-Policy value.
func NormalizeCOEP(value string) string {
	return strings.Join(splitTrim(strings.ToLower(value), ";"), ";")
}

// NormalizeAll canonicalizes every relevant header of one observation,
// producing one value per mechanism view. Absent headers map to Missing.
func NormalizeAll(h Headers) Headers {
	normalized := NewHeaders()
	put := func(view, source string, normalize func(string) string) {
		if h.Has(source) {
			normalized.Set(view, normalize(h.Get(source)))
		} else {
			normalized.Set(view, Missing)
		}
	}

	put(HeaderHSTS, HeaderHSTS, NormalizeHSTS)
	put(HeaderXFO, HeaderXFO, NormalizeXFO)
	put(ViewCSPXSS, HeaderCSP, func(v string) string {
		return NormalizeCSP(v, []string{"default-src", "script-src"})
	})
	put(ViewCSPFA, HeaderCSP, func(v string) string {
		return NormalizeCSP(v, []string{"frame-ancestors"})
	})
	put(ViewCSPTLS, HeaderCSP, func(v string) string {
		return NormalizeCSP(v, []string{"block-all-mixed-content", "upgrade-insecure-requests"})
	})
	put(HeaderCSP, HeaderCSP, func(v string) string { return NormalizeCSP(v, nil) })
	put(HeaderPermissionsPolicy, HeaderPermissionsPolicy, NormalizePermissionsPolicy)
	put(HeaderReferrerPolicy, HeaderReferrerPolicy, NormalizeReferrerPolicy)
	put(HeaderCOOP, HeaderCOOP, NormalizeCOOP)
	put(HeaderCORP, HeaderCORP, NormalizeCORP)
	put(HeaderCOEP, HeaderCOEP, NormalizeCOEP)
	return normalized
}

func splitTrim(value, sep string) []string {
	parts := strings.Split(value, sep)
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	return parts
}

func sortedSet(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !seen[token] {
			seen[token] = true
			unique = append(unique, token)
		}
	}
	sort.Strings(unique)
	return unique
}
