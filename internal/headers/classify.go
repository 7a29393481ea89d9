package headers

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const secondsPerYear = 60 * 60 * 24 * 365

// RFC 6797 §6.1: the max-age value is a delta-seconds token, optionally quoted.
var maxAgeRegex = regexp.MustCompile(`^max-age=(?:(\d+)|"(\d+)")$`)

// allowlist regex for classifying Permissions-Policy directives; * allowlists
// are handled separately.
var ppAllowlistRegex = regexp.MustCompile(`^([^=]+)=\((.*)\)`)

// Classification is the security level of every mechanism observed in one
// response. CSP is split into its three independent use-cases.
type Classification struct {
	HSTSAge           HSTSAge        `json:"hsts_age"`
	HSTSSub           HSTSSub        `json:"hsts_sub"`
	HSTSPreload       HSTSPreload    `json:"hsts_preload"`
	XFO               XFO            `json:"xfo"`
	CSPXSS            CSPXSS         `json:"csp_xss"`
	CSPFraming        CSPFraming     `json:"csp_fa"`
	CSPTLS            CSPTLS         `json:"csp_tls"`
	PermissionsPolicy string         `json:"permissions_policy"`
	ReferrerPolicy    ReferrerPolicy `json:"referrer_policy"`
	COOP              COOP           `json:"coop"`
	CORP              CORP           `json:"corp"`
	COEP              COEP           `json:"coep"`
}

// Tags returns the classification as mechanism → tag string, trivially
// encodable for storage or reports.
func (c Classification) Tags() map[string]string {
	return map[string]string{
		HeaderHSTS:              c.HSTSAge.String() + ";" + c.HSTSSub.String() + ";" + c.HSTSPreload.String(),
		HeaderXFO:               c.XFO.String(),
		ViewCSPXSS:              c.CSPXSS.String(),
		ViewCSPFA:               c.CSPFraming.String(),
		ViewCSPTLS:              c.CSPTLS.String(),
		HeaderPermissionsPolicy: c.PermissionsPolicy,
		HeaderReferrerPolicy:    c.ReferrerPolicy.String(),
		HeaderCOOP:              c.COOP.String(),
		HeaderCORP:              c.CORP.String(),
		HeaderCOEP:              c.COEP.String(),
	}
}

// ClassifyAll classifies every relevant header of one observation. Absent
// headers degrade to each mechanism's weakest level.
func ClassifyAll(h Headers, origin *Origin) Classification {
	age, sub, preload := ClassifyHSTS(h.Get(HeaderHSTS))
	xss, fa, tls := ClassifyCSP(h.Get(HeaderCSP), origin)
	return Classification{
		HSTSAge:           age,
		HSTSSub:           sub,
		HSTSPreload:       preload,
		XFO:               ClassifyXFO(h.Get(HeaderXFO)),
		CSPXSS:            xss,
		CSPFraming:        fa,
		CSPTLS:            tls,
		PermissionsPolicy: ClassifyPermissionsPolicy(h.Get(HeaderPermissionsPolicy), origin),
		ReferrerPolicy:    ClassifyReferrerPolicy(h.Get(HeaderReferrerPolicy)),
		COOP:              ClassifyCOOP(h.Get(HeaderCOOP)),
		CORP:              ClassifyCORP(h.Get(HeaderCORP)),
		COEP:              ClassifyCOEP(h.Get(HeaderCOEP)),
	}
}

// ----------------------------------------------------------------------------
// Strict-Transport-Security

func classifyHSTSAge(maxAge int64, present bool) HSTSAge {
	switch {
	case !present:
		return HSTSAgeAbsent
	case maxAge <= 0:
		return HSTSAgeDisabled
	case maxAge < secondsPerYear:
		return HSTSAgeLow
	default:
		return HSTSAgeBig
	}
}

// ClassifyHSTS classifies a Strict-Transport-Security value into its max-age,
// includeSubDomains, and preload levels. A repeated directive name or a
// malformed max-age invalidates the whole header (RFC 6797 §6.1 requires each
// directive to appear at most once).
func ClassifyHSTS(value string) (HSTSAge, HSTSSub, HSTSPreload) {
	var (
		maxAge        int64
		maxAgePresent bool
		includeSub    bool
		preload       bool
	)
	seen := make(map[string]bool)

	for _, token := range strings.Split(NormalizeHSTS(value), ";") {
		directive, _, _ := strings.Cut(token, "=")
		if seen[directive] {
			return HSTSAgeAbsent, HSTSSubAbsent, HSTSPreloadAbsent
		}

		switch directive {
		case "max-age":
			match := maxAgeRegex.FindStringSubmatch(token)
			if match == nil {
				return HSTSAgeAbsent, HSTSSubAbsent, HSTSPreloadAbsent
			}
			digits := match[1]
			if digits == "" {
				digits = match[2]
			}
			parsed, err := strconv.ParseInt(digits, 10, 64)
			if err != nil {
				// Digits only, so the sole failure mode is overflow; any such
				// value is far beyond one year.
				parsed = math.MaxInt64
			}
			maxAge = parsed
			maxAgePresent = true
		case "includesubdomains":
			includeSub = true
		case "preload":
			preload = true
		}

		seen[directive] = true
	}

	age := classifyHSTSAge(maxAge, maxAgePresent)

	// A zero or absent max-age nullifies includeSubDomains, and preloading
	// additionally requires includeSubDomains plus a max-age of at least a year.
	sub := HSTSSubAbsent
	if includeSub && age != HSTSAgeAbsent && age != HSTSAgeDisabled {
		sub = HSTSSubActive
	}
	pre := HSTSPreloadAbsent
	if preload && includeSub && age == HSTSAgeBig {
		pre = HSTSPreloadActive
	}
	return age, sub, pre
}

// ----------------------------------------------------------------------------
// X-Frame-Options

// ClassifyXFO classifies an X-Frame-Options value. Modern browsers dropped
// ALLOW-FROM, so only DENY and SAMEORIGIN count as protective.
func ClassifyXFO(value string) XFO {
	switch NormalizeXFO(value) {
	case "deny":
		return XFODeny
	case "sameorigin":
		return XFOSameOrigin
	default:
		return XFOUnsafe
	}
}

// ----------------------------------------------------------------------------
// Content-Security-Policy

// Redacted placeholder tokens as they appear after normalization, which
// lowercases the whole policy.
var secureScriptExpressions = []string{
	"'nonce-value'", "'sha256-value'", "'sha384-value'", "'sha512-value'", "'strict-dynamic'",
}

var broadScriptSources = []string{
	"*", "http:", "http://", "http://*", "https:", "https://", "https://*", "data:",
}

var broadFramingSources = []string{
	"*", "http:", "http://", "http://*", "https:", "https://", "https://*",
}

// isUnsafeInlineActive reports whether 'unsafe-inline' takes effect, i.e. no
// trusted escape hatch (nonce, hash, strict-dynamic) disables it.
func isUnsafeInlineActive(directive SourceSet) bool {
	return directive.Contains("'unsafe-inline'") && !directive.ContainsAny(secureScriptExpressions...)
}

func classifyXSSMitigation(policy Policy) CSPXSS {
	directive := policy.Directive("script-src")
	if directive == nil {
		directive = policy.Directive("default-src")
	}
	if directive == nil || isUnsafeInlineActive(directive) {
		return CSPXSSUnsafe
	}
	if directive.ContainsAny(broadScriptSources...) && !directive.Contains("'strict-dynamic'") {
		return CSPXSSUnsafe
	}
	return CSPXSSSafe
}

func classifyPolicyXSS(policy Policy) CSPXSS {
	if !policy.Has("script-src") && !policy.Has("default-src") {
		return CSPXSSUnsafe
	}
	return classifyXSSMitigation(policy)
}

// ClassifyCSPXSS classifies the XSS mitigation use-case across all delivered
// policies, keeping the most protective result.
func ClassifyCSPXSS(value string) CSPXSS {
	result := CSPXSSUnsafe
	for _, policy := range ParseCSP(NormalizeCSP(value, nil)) {
		result = MaxLevel(result, classifyPolicyXSS(policy))
	}
	return result
}

// selfExpressions returns every source token form that refers back to the
// origin itself: the literal 'self' keyword, the bare origin, its
// https-upgraded form, and the bare host, each with and without a trailing
// slash.
func selfExpressions(origin *Origin) SourceSet {
	set := SourceSet{"'self'": {}}
	if origin == nil {
		return set
	}
	secureOrigin := "https://" + origin.HostPort()
	for _, form := range []string{
		origin.String(), origin.String() + "/",
		secureOrigin, secureOrigin + "/",
		origin.HostPort(), origin.HostPort() + "/",
	} {
		set[form] = struct{}{}
	}
	return set
}

func classifyFramingControl(directive SourceSet, origin *Origin) CSPFraming {
	if len(directive) == 0 {
		return CSPFramingNone
	}
	if len(directive) == 1 && directive.Contains("'none'") {
		return CSPFramingNone
	}

	self := selfExpressions(origin)
	allSelf := true
	for source := range directive {
		if !self.Contains(source) {
			allSelf = false
			break
		}
	}
	if allSelf {
		return CSPFramingSelf
	}

	if directive.ContainsAny(broadFramingSources...) {
		return CSPFramingUnsafe
	}
	return CSPFramingConstrained
}

func classifyPolicyFraming(policy Policy, origin *Origin) CSPFraming {
	if !policy.Has("frame-ancestors") {
		return CSPFramingUnsafe
	}
	return classifyFramingControl(policy.Directive("frame-ancestors"), origin)
}

// ClassifyCSPFraming classifies the framing control use-case across all
// delivered policies, keeping the most protective result.
func ClassifyCSPFraming(value string, origin *Origin) CSPFraming {
	result := CSPFramingUnsafe
	for _, policy := range ParseCSP(NormalizeCSP(value, nil)) {
		result = MaxLevel(result, classifyPolicyFraming(policy, origin))
	}
	return result
}

func classifyPolicyTLS(policy Policy) CSPTLS {
	// block-all-mixed-content implies the upgrade behavior, so it is checked first.
	if policy.Has("block-all-mixed-content") {
		return CSPTLSBlockAllMixedContent
	}
	if policy.Has("upgrade-insecure-requests") {
		return CSPTLSUpgradeInsecureRequests
	}
	return CSPTLSUnsafe
}

// ClassifyCSPTLS classifies the TLS enforcement use-case across all delivered
// policies, keeping the most protective result.
func ClassifyCSPTLS(value string) CSPTLS {
	result := CSPTLSUnsafe
	for _, policy := range ParseCSP(NormalizeCSP(value, nil)) {
		result = MaxLevel(result, classifyPolicyTLS(policy))
	}
	return result
}

// ClassifyCSP classifies all three independent CSP use-cases.
func ClassifyCSP(value string, origin *Origin) (CSPXSS, CSPFraming, CSPTLS) {
	return ClassifyCSPXSS(value), ClassifyCSPFraming(value, origin), ClassifyCSPTLS(value)
}

// ----------------------------------------------------------------------------
// Permissions-Policy

// ClassifyPermissionsPolicy reduces a Permissions-Policy value to a canonical
// structural form for equality comparison: * allowlists are dropped (assumed
// feature default), self-referential origins collapse to the self keyword.
// There is no defined protection order across features, so the result is a
// string rather than a level.
func ClassifyPermissionsPolicy(value string, origin *Origin) string {
	var directives []string
	for _, directive := range strings.Split(strings.ToLower(value), ",") {
		match := ppAllowlistRegex.FindStringSubmatch(strings.TrimSpace(directive))
		if match == nil {
			continue
		}
		name := match[1]
		content := make(map[string]bool)
		for _, token := range strings.Fields(match[2]) {
			content[token] = true
		}
		if content["*"] {
			continue
		}

		if origin != nil {
			secureOrigin := "https://" + origin.HostPort()
			collapsed := false
			for _, form := range []string{
				origin.String(), origin.String() + "/",
				secureOrigin, secureOrigin + "/",
				origin.HostPort(), origin.HostPort() + "/",
			} {
				quoted := `"` + form + `"`
				if content[quoted] {
					delete(content, quoted)
					collapsed = true
				}
			}
			if collapsed {
				content["self"] = true
			}
		}

		tokens := make([]string, 0, len(content))
		for token := range content {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)
		directives = append(directives, name+"=("+strings.Join(tokens, " ")+")")
	}
	sort.Strings(directives)
	return strings.Join(directives, ",")
}

// ----------------------------------------------------------------------------
// Referrer-Policy

var referrerPolicyLevels = map[string]ReferrerPolicy{
	"unsafe-url":                      RPUnsafeURL,
	"same-origin":                     RPSameOrigin,
	"no-referrer":                     RPNoReferrer,
	"no-referrer-when-downgrade":      RPNoReferrerWhenDowngrade,
	"origin":                          RPOrigin,
	"origin-when-cross-origin":        RPOriginWhenCrossOrigin,
	"strict-origin":                   RPStrictOrigin,
	"strict-origin-when-cross-origin": RPStrictOriginWhenCrossOrigin,
}

// ClassifyReferrerPolicy classifies a Referrer-Policy value. Per the
// Referrer Policy header parsing algorithm the last recognized token wins;
// unrecognized tokens are skipped, and an empty result falls back to the
// browser default.
func ClassifyReferrerPolicy(value string) ReferrerPolicy {
	policy := RPStrictOriginWhenCrossOrigin
	for _, token := range strings.Split(NormalizeReferrerPolicy(value), ",") {
		if level, ok := referrerPolicyLevels[token]; ok {
			policy = level
		}
	}
	return policy
}

// ----------------------------------------------------------------------------
// Cross-Origin policies

// ClassifyCOOP classifies a Cross-Origin-Opener-Policy value by its first
// ;-separated segment.
func ClassifyCOOP(value string) COOP {
	directive, _, _ := strings.Cut(NormalizeCOOP(value), ";")
	switch directive {
	case "same-origin":
		return COOPSameOrigin
	case "same-origin-allow-popups":
		return COOPSameOriginAllowPopups
	default:
		return COOPUnsafeNone
	}
}

// ClassifyCORP classifies a Cross-Origin-Resource-Policy value.
func ClassifyCORP(value string) CORP {
	switch NormalizeCORP(value) {
	case "same-origin":
		return CORPSameOrigin
	case "same-site":
		return CORPSameSite
	default:
		return CORPCrossOrigin
	}
}

// ClassifyCOEP classifies a Cross-Origin-Embedder-Policy value by its first
// ;-separated segment.
func ClassifyCOEP(value string) COEP {
	directive, _, _ := strings.Cut(NormalizeCOEP(value), ";")
	switch directive {
	case "require-corp":
		return COEPRequireCorp
	case "credentialless":
		return COEPCredentialless
	default:
		return COEPUnsafeNone
	}
}
