package headers

import (
	"fmt"
	"net/url"
	"strings"
)

// Origin is the canonical (scheme, host, port) triple of a response URL.
// Port is empty when the URL carries no explicit port. Two origins are equal
// iff all three fields match exactly.
type Origin struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Port   string `json:"port,omitempty"`
}

// String returns the canonical form scheme://host[:port].
func (o Origin) String() string {
	if o.Port == "" {
		return fmt.Sprintf("%s://%s", o.Scheme, o.Host)
	}
	return fmt.Sprintf("%s://%s:%s", o.Scheme, o.Host, o.Port)
}

// HostPort returns host[:port] without the scheme.
func (o Origin) HostPort() string {
	if o.Port == "" {
		return o.Host
	}
	return o.Host + ":" + o.Port
}

// ParseOrigin extracts the origin of a URL. Scheme and host are lowercased,
// an explicit port is kept verbatim.
func ParseOrigin(rawURL string) (Origin, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Origin{}, fmt.Errorf("failed to parse URL %q: %w", rawURL, err)
	}
	return Origin{
		Scheme: strings.ToLower(parsed.Scheme),
		Host:   strings.ToLower(parsed.Hostname()),
		Port:   parsed.Port(),
	}, nil
}
