// File: internal/domaincontext/domain.go
package domaincontext

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegistrableDomain reduces a navigation target to its lower-cased registrable
// domain (e.g. "https://www.vogue.com/fashion" -> "vogue.com"), the key used
// to partition context records. It returns "" when no domain can be resolved,
// which callers treat as a non-navigational step.
func RegistrableDomain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	// about:blank, chrome-error:// pages, data: and javascript: URIs never
	// carry a registrable host.
	lower := strings.ToLower(raw)
	for _, scheme := range []string{"about:", "chrome:", "chrome-error:", "data:", "javascript:", "blob:"} {
		if strings.HasPrefix(lower, scheme) {
			return ""
		}
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	// IP literals have no registrable form; key them as-is.
	if ip := net.ParseIP(host); ip != nil {
		return host
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Hosts like "localhost" have no public suffix; fall back to the raw
		// host so evidence from them is still partitioned somewhere stable.
		return host
	}
	return domain
}
