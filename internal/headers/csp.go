package headers

import "strings"

// SourceSet is the set of source tokens of one CSP directive.
type SourceSet map[string]struct{}

// Contains reports whether token is in the set.
func (s SourceSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// ContainsAny reports whether any of the given tokens is in the set.
func (s SourceSet) ContainsAny(tokens ...string) bool {
	for _, token := range tokens {
		if s.Contains(token) {
			return true
		}
	}
	return false
}

// Policy maps directive names (lowercased) to their source tokens.
type Policy map[string]SourceSet

// AddDirective records a directive. Mirroring browser behavior, only the
// first occurrence of a directive name is kept; later duplicates are dropped
// and false is returned.
func (p Policy) AddDirective(name string, tokens []string) bool {
	name = strings.ToLower(name)
	if _, ok := p[name]; ok {
		return false
	}
	set := make(SourceSet, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	p[name] = set
	return true
}

// Has reports whether the policy defines the directive.
func (p Policy) Has(name string) bool {
	_, ok := p[strings.ToLower(name)]
	return ok
}

// Directive returns the source tokens of a directive, or nil.
func (p Policy) Directive(name string) SourceSet {
	return p[strings.ToLower(name)]
}

// ParseCSP splits a Content-Security-Policy value into its comma-separated
// policies, each a mapping of directive name to source token set.
func ParseCSP(value string) []Policy {
	var policies []Policy
	for _, raw := range strings.Split(strings.TrimSpace(value), ",") {
		policy := make(Policy)
		for _, directive := range strings.Split(strings.TrimSpace(raw), ";") {
			fields := strings.Fields(directive)
			if len(fields) == 0 {
				continue
			}
			policy.AddDirective(fields[0], fields[1:])
		}
		policies = append(policies, policy)
	}
	return policies
}
