package tenant

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

// SubdomainPattern is the accepted shape of a tenant subdomain token.
var SubdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Kind classifies the host of an inbound request.
type Kind int

const (
	// KindRoot is the bare production root domain or its www alias.
	KindRoot Kind = iota
	// KindTenant is a subdomain of the production root naming a tenant.
	KindTenant
	// KindLocal is a local development host; only an allow-list of root paths is served.
	KindLocal
	// KindExternal is any other host (empty, foreign or malformed). It never carries a tenant.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindTenant:
		return "tenant"
	case KindLocal:
		return "local"
	default:
		return "external"
	}
}

// Classification is the outcome of parsing a Host header.
type Classification struct {
	Kind Kind
	// Host is the normalized hostname (lowercase, port stripped).
	Host string
	// Token is the tenant subdomain token; empty unless Kind is KindTenant.
	Token string
}

// HasTenant reports whether the host names a tenant.
func (c Classification) HasTenant() bool {
	return c.Kind == KindTenant && c.Token != ""
}

// HostParser classifies hostnames against a production root domain and local development markers.
type HostParser struct {
	rootDomain string
	rootLabels int
	devMarkers []string
}

// NewHostParser builds a parser for rootDomain (e.g. "rname.ink"). devMarkers are hostnames such as
// "localhost" that mark local development, matched exactly or as a dot-separated suffix.
func NewHostParser(rootDomain string, devMarkers []string) (*HostParser, error) {
	root := NormalizeHost(rootDomain)
	if root == "" {
		return nil, errors.New("root domain is required")
	}
	labels := strings.Split(root, ".")
	if len(labels) < 2 {
		return nil, fmt.Errorf("root domain %q must have at least two labels", rootDomain)
	}
	for _, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("root domain %q has an empty label", rootDomain)
		}
	}

	markers := make([]string, 0, len(devMarkers))
	for _, marker := range devMarkers {
		if m := NormalizeHost(marker); m != "" {
			markers = append(markers, m)
		}
	}

	return &HostParser{rootDomain: root, rootLabels: len(labels), devMarkers: markers}, nil
}

// RootDomain returns the normalized production root domain.
func (p *HostParser) RootDomain() string {
	return p.rootDomain
}

// Classify parses a raw Host header value, which may carry a port.
func (p *HostParser) Classify(rawHost string) Classification {
	host := NormalizeHost(rawHost)
	if host == "" {
		return Classification{Kind: KindExternal}
	}

	if p.isLocal(host) {
		return Classification{Kind: KindLocal, Host: host}
	}

	if host == p.rootDomain || host == "www."+p.rootDomain {
		return Classification{Kind: KindRoot, Host: host}
	}

	if !strings.HasSuffix(host, "."+p.rootDomain) {
		return Classification{Kind: KindExternal, Host: host}
	}

	labels := strings.Split(host, ".")
	for _, label := range labels {
		if label == "" {
			return Classification{Kind: KindExternal, Host: host}
		}
	}

	token := labels[0]
	if token == "www" || len(labels) < 3 || len(labels) <= p.rootLabels {
		return Classification{Kind: KindRoot, Host: host}
	}
	if !SubdomainPattern.MatchString(token) {
		return Classification{Kind: KindExternal, Host: host}
	}

	return Classification{Kind: KindTenant, Host: host, Token: token}
}

func (p *HostParser) isLocal(host string) bool {
	for _, marker := range p.devMarkers {
		if host == marker || strings.HasSuffix(host, "."+marker) {
			return true
		}
	}
	return false
}

// NormalizeHost lowercases the host, strips any port and a trailing root dot.
func NormalizeHost(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(raw); err == nil {
		raw = h
	}
	return strings.TrimSuffix(raw, ".")
}
