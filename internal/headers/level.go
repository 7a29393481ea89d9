package headers

// Level is implemented by every mechanism's security level type. Levels of one
// mechanism form a total order: a greater rank means a more protective setting.
type Level interface {
	Rank() int
}

// MaxLevel returns the more protective of two levels of the same mechanism.
// It is commutative and associative, so folding any number of observed values
// is order-independent.
//
// NOTE: reducing multiple delivered CSP policies with MaxLevel is a best-case
// measurement simplification. Browsers enforce concurrently delivered policies
// as an intersection, so the true protection can only be stronger than any
// single policy suggests.
func MaxLevel[T Level](first, second T) T {
	if second.Rank() > first.Rank() {
		return second
	}
	return first
}

// HSTSAge classifies the max-age directive of a Strict-Transport-Security header.
type HSTSAge int

const (
	HSTSAgeDisabled HSTSAge = -1
	HSTSAgeAbsent   HSTSAge = 0
	HSTSAgeLow      HSTSAge = 1
	HSTSAgeBig      HSTSAge = 2
)

// Rank implements Level.
func (a HSTSAge) Rank() int { return int(a) }

func (a HSTSAge) String() string {
	switch a {
	case HSTSAgeDisabled:
		return "DISABLED"
	case HSTSAgeLow:
		return "LOW"
	case HSTSAgeBig:
		return "BIG"
	default:
		return "ABSENT"
	}
}

// HSTSSub reports whether includeSubDomains is in effect.
type HSTSSub int

const (
	HSTSSubAbsent HSTSSub = 0
	HSTSSubActive HSTSSub = 1
)

func (s HSTSSub) Rank() int { return int(s) }

func (s HSTSSub) String() string {
	if s == HSTSSubActive {
		return "ACTIVE"
	}
	return "ABSENT"
}

// HSTSPreload reports whether the preload requirements are met.
type HSTSPreload int

const (
	HSTSPreloadAbsent HSTSPreload = 0
	HSTSPreloadActive HSTSPreload = 1
)

func (p HSTSPreload) Rank() int { return int(p) }

func (p HSTSPreload) String() string {
	if p == HSTSPreloadActive {
		return "ACTIVE"
	}
	return "ABSENT"
}

// XFO classifies an X-Frame-Options header.
type XFO int

const (
	XFOUnsafe     XFO = 0
	XFOSameOrigin XFO = 1
	XFODeny       XFO = 2
)

func (x XFO) Rank() int { return int(x) }

func (x XFO) String() string {
	switch x {
	case XFOSameOrigin:
		return "SAMEORIGIN"
	case XFODeny:
		return "DENY"
	default:
		return "UNSAFE"
	}
}

// CSPXSS classifies the XSS mitigation use-case of a Content-Security-Policy.
type CSPXSS int

const (
	CSPXSSUnsafe CSPXSS = 0
	CSPXSSSafe   CSPXSS = 1
)

func (c CSPXSS) Rank() int { return int(c) }

func (c CSPXSS) String() string {
	if c == CSPXSSSafe {
		return "SAFE"
	}
	return "UNSAFE"
}

// CSPFraming classifies the framing control use-case (frame-ancestors).
type CSPFraming int

const (
	CSPFramingUnsafe      CSPFraming = 0
	CSPFramingConstrained CSPFraming = 1
	CSPFramingSelf        CSPFraming = 2
	CSPFramingNone        CSPFraming = 3
)

func (c CSPFraming) Rank() int { return int(c) }

func (c CSPFraming) String() string {
	switch c {
	case CSPFramingConstrained:
		return "CONSTRAINED"
	case CSPFramingSelf:
		return "SELF"
	case CSPFramingNone:
		return "NONE"
	default:
		return "UNSAFE"
	}
}

// CSPTLS classifies the TLS enforcement use-case of a Content-Security-Policy.
type CSPTLS int

const (
	CSPTLSUnsafe                  CSPTLS = 0
	CSPTLSBlockAllMixedContent    CSPTLS = 1
	CSPTLSUpgradeInsecureRequests CSPTLS = 2
)

func (c CSPTLS) Rank() int { return int(c) }

func (c CSPTLS) String() string {
	switch c {
	case CSPTLSBlockAllMixedContent:
		return "BLOCK_ALL_MIXED_CONTENT"
	case CSPTLSUpgradeInsecureRequests:
		return "UPGRADE_INSECURE_REQUESTS"
	default:
		return "UNSAFE"
	}
}

// ReferrerPolicy classifies a Referrer-Policy header.
type ReferrerPolicy int

const (
	RPUnsafeURL                   ReferrerPolicy = 0
	RPSameOrigin                  ReferrerPolicy = 1
	RPNoReferrer                  ReferrerPolicy = 2
	RPNoReferrerWhenDowngrade     ReferrerPolicy = 3
	RPOrigin                      ReferrerPolicy = 4
	RPOriginWhenCrossOrigin       ReferrerPolicy = 5
	RPStrictOrigin                ReferrerPolicy = 6
	RPStrictOriginWhenCrossOrigin ReferrerPolicy = 7
)

func (r ReferrerPolicy) Rank() int { return int(r) }

func (r ReferrerPolicy) String() string {
	switch r {
	case RPUnsafeURL:
		return "UNSAFE_URL"
	case RPSameOrigin:
		return "SAME_ORIGIN"
	case RPNoReferrer:
		return "NO_REFERRER"
	case RPNoReferrerWhenDowngrade:
		return "NO_REFERRER_WHEN_DOWNGRADE"
	case RPOrigin:
		return "ORIGIN"
	case RPOriginWhenCrossOrigin:
		return "ORIGIN_WHEN_CROSS_ORIGIN"
	case RPStrictOrigin:
		return "STRICT_ORIGIN"
	default:
		return "STRICT_ORIGIN_WHEN_CROSS_ORIGIN"
	}
}

// COOP classifies a Cross-Origin-Opener-Policy header.
type COOP int

const (
	COOPUnsafeNone            COOP = 0
	COOPSameOrigin            COOP = 1
	COOPSameOriginAllowPopups COOP = 2
)

func (c COOP) Rank() int { return int(c) }

func (c COOP) String() string {
	switch c {
	case COOPSameOrigin:
		return "SAME_ORIGIN"
	case COOPSameOriginAllowPopups:
		return "SAME_ORIGIN_ALLOW_POPUPS"
	default:
		return "UNSAFE_NONE"
	}
}

// CORP classifies a Cross-Origin-Resource-Policy header.
type CORP int

const (
	CORPCrossOrigin CORP = 0
	CORPSameSite    CORP = 1
	CORPSameOrigin  CORP = 2
)

func (c CORP) Rank() int { return int(c) }

func (c CORP) String() string {
	switch c {
	case CORPSameSite:
		return "SAME_SITE"
	case CORPSameOrigin:
		return "SAME_ORIGIN"
	default:
		return "CROSS_ORIGIN"
	}
}

// COEP classifies a Cross-Origin-Embedder-Policy header.
type COEP int

const (
	COEPUnsafeNone     COEP = 0
	COEPRequireCorp    COEP = 1
	COEPCredentialless COEP = 2
)

func (c COEP) Rank() int { return int(c) }

func (c COEP) String() string {
	switch c {
	case COEPRequireCorp:
		return "REQUIRE_CORP"
	case COEPCredentialless:
		return "CREDENTIALLESS"
	default:
		return "UNSAFE_NONE"
	}
}
