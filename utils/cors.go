package utils

import (
	"net"
	"net/url"
	"strings"
	"sync"
)

var (
	trustedMu      sync.RWMutex
	trustedOrigins = map[string]struct{}{}
)

// SetTrustedOrigins registers the external origins allowed to call the API
// with credentials, typically the landing site that initiates the portal
// handoff. Called once at startup.
func SetTrustedOrigins(origins []string) {
	trustedMu.Lock()
	defer trustedMu.Unlock()
	trustedOrigins = make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o != "" {
			trustedOrigins[o] = struct{}{}
		}
	}
}

// IsAllowedOrigin checks whether an Origin header value should be trusted.
// Configured origins are always allowed; beyond that, localhost and
// private/RFC1918 IPs are allowed for development. Public internet origins
// are blocked unless explicitly configured.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	trustedMu.RLock()
	_, configured := trustedOrigins[strings.TrimSuffix(origin, "/")]
	trustedMu.RUnlock()
	if configured {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}

	hostname := parsed.Hostname()

	if hostname == "localhost" {
		return true
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return isPrivateIP(ip)
	}

	return false
}

// isPrivateIP returns true for RFC1918, loopback, and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	privateRanges := []struct {
		network *net.IPNet
	}{
		{mustParseCIDR("10.0.0.0/8")},
		{mustParseCIDR("172.16.0.0/12")},
		{mustParseCIDR("192.168.0.0/16")},
		{mustParseCIDR("127.0.0.0/8")},
		{mustParseCIDR("169.254.0.0/16")}, // link-local IPv4
		{mustParseCIDR("::1/128")},        // loopback IPv6
		{mustParseCIDR("fe80::/10")},      // link-local IPv6
		{mustParseCIDR("fc00::/7")},       // unique local IPv6
	}

	for _, r := range privateRanges {
		if r.network.Contains(ip) {
			return true
		}
	}
	return false
}

func mustParseCIDR(s string) *net.IPNet {
	_, network, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return network
}
