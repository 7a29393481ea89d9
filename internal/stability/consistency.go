package stability

// Consistency tracks whether one mechanism's canonical value has remained
// identical across a target's daily live observations. Days without an
// observation inherit the previous day's verdict; before any observation the
// verdict is vacuously true.
type Consistency struct {
	seen     map[string]struct{}
	deployed bool
	verdict  bool
}

// NewConsistency returns an empty consistency fold.
func NewConsistency() *Consistency {
	return &Consistency{seen: make(map[string]struct{}), verdict: true}
}

// ObserveValue records the canonical value seen on a day with data and
// returns whether all values seen so far are identical. deployed reports
// whether the raw header was actually present that day.
func (c *Consistency) ObserveValue(value string, deployed bool) bool {
	c.seen[value] = struct{}{}
	c.deployed = c.deployed || deployed
	c.verdict = len(c.seen) == 1
	return c.verdict
}

// ObserveGap carries the previous day's verdict across a day without data.
func (c *Consistency) ObserveGap() bool {
	return c.verdict
}

// Deployed reports whether the header was present on any observed day.
func (c *Consistency) Deployed() bool { return c.deployed }

// Consistent returns the current verdict.
func (c *Consistency) Consistent() bool { return c.verdict }
