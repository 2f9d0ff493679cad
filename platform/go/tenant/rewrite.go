package tenant

import "strings"

// StorefrontPrefix marks internal tenant-scoped storefront routes.
const StorefrontPrefix = "/shop/"

// Action tells the HTTP layer what to do with a request path.
type Action int

const (
	// ActionPass serves the request with its original path.
	ActionPass Action = iota
	// ActionRewrite serves the request under Decision.Path.
	ActionRewrite
	// ActionBlock refuses the request; the path is not served for this host.
	ActionBlock
)

// Decision is the outcome of routing a path for a classified host.
type Decision struct {
	Action Action
	Path   string
}

// internalPrefixes are never rewritten: API endpoints, assets, ops endpoints and paths that already
// target a storefront.
var internalPrefixes = []string{
	"/api",
	"/assets",
	StorefrontPrefix,
	"/healthz",
	"/readyz",
	"/metrics",
	"/docs",
	"/openapi",
}

// localAllowList is what a local development host may reach besides internal paths.
var localAllowList = []string{"/dashboard", "/auth", "/demo"}

// Route decides how path is served for the classified host. It is a pure string transformation.
// The query string is not part of path and is never touched.
func Route(c Classification, path string) Decision {
	if path == "" {
		path = "/"
	}

	if IsInternalPath(path) {
		return Decision{Action: ActionPass, Path: path}
	}

	switch c.Kind {
	case KindLocal:
		if path == "/" {
			return Decision{Action: ActionPass, Path: path}
		}
		for _, prefix := range localAllowList {
			if hasPathPrefix(path, prefix) {
				return Decision{Action: ActionPass, Path: path}
			}
		}
		return Decision{Action: ActionBlock, Path: path}
	case KindTenant:
		if c.Token == "" {
			return Decision{Action: ActionPass, Path: path}
		}
		return Decision{Action: ActionRewrite, Path: StorefrontPath(c.Token, path)}
	default:
		return Decision{Action: ActionPass, Path: path}
	}
}

// StorefrontPath prefixes path with the storefront marker and token.
func StorefrontPath(token, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return StorefrontPrefix + token + path
}

// IsInternalPath reports whether path must bypass rewriting. Any path naming a file (a dot in its
// last segment) is treated as a static asset.
func IsInternalPath(path string) bool {
	for _, prefix := range internalPrefixes {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}
	last := path[strings.LastIndex(path, "/")+1:]
	return strings.Contains(last, ".")
}

// hasPathPrefix matches prefix on a path segment boundary so "/apis" does not match "/api".
func hasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	return path[len(prefix)] == '/'
}
