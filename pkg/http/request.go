package http

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// UnknownAddress is recorded when the transport address cannot be determined
const UnknownAddress = "unknown"

// IPConfig holds configuration for IP extraction and validation
type IPConfig struct {
	TrustedProxies []string // CIDR ranges of trusted proxies
}

// ExtractClientIP returns the source address to record for a request.
//
// Forwarding headers are attacker-controlled, so they are consulted only when
// the transport peer is a trusted proxy:
//  1. X-Forwarded-For, walked right to left, first hop that is not a trusted proxy
//  2. X-Real-IP
//  3. RemoteAddr
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)
	if config == nil {
		return remoteIP
	}

	trusted := parsePrefixes(config.TrustedProxies)
	if !isTrusted(remoteIP, trusted) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip, ok := clientFromForwardedFor(xff, trusted); ok {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}

	return remoteIP
}

// clientFromForwardedFor picks the nearest hop that is not one of our proxies.
// When every hop is trusted the leftmost valid address wins.
func clientFromForwardedFor(xff string, trusted []netip.Prefix) (string, bool) {
	var hops []netip.Addr
	for _, part := range strings.Split(xff, ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
			hops = append(hops, addr.Unmap())
		}
	}
	if len(hops) == 0 {
		return "", false
	}

	for i := len(hops) - 1; i >= 0; i-- {
		if !containsAddr(trusted, hops[i]) {
			return hops[i].String(), true
		}
	}
	return hops[0].String(), true
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return UnknownAddress
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func parsePrefixes(cidrs []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			continue // Skip invalid CIDR ranges
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return containsAddr(trusted, addr.Unmap())
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
