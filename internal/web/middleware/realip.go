package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// TrustedRealIP rewrites r.RemoteAddr from X-Real-IP or X-Forwarded-For,
// but only when the connection itself comes from one of the configured
// proxy CIDRs. Requests from anywhere else keep their socket address, so
// clients cannot spoof the IP used for rate limiting and access logs.
//
// Entries may be CIDRs ("10.0.0.0/8") or bare addresses ("127.0.0.1").
func TrustedRealIP(trustedProxies []string) func(http.Handler) http.Handler {
	trusted := parseTrustedNets(trustedProxies)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isTrusted(remoteIP(r.RemoteAddr), trusted) {
				if ip := clientIPFromHeaders(r); ip != nil {
					r.RemoteAddr = ip.String()
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parseTrustedNets parses the configured proxy list once at startup.
// Invalid entries are logged and skipped rather than failing the server.
func parseTrustedNets(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
			continue
		}

		// Bare address: treat as a /32 (or /128 for IPv6).
		if ip := net.ParseIP(entry); ip != nil {
			mask := net.CIDRMask(128, 128)
			if ip.To4() != nil {
				mask = net.CIDRMask(32, 32)
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: mask})
			continue
		}

		slog.Warn("realip: skipping invalid trusted proxy entry", "entry", entry)
	}
	return nets
}

// clientIPFromHeaders returns the forwarded client address, preferring
// X-Real-IP over the first hop of X-Forwarded-For. Returns nil when
// neither header carries a parseable IP.
func clientIPFromHeaders(r *http.Request) net.IP {
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		if ip := net.ParseIP(rip); ip != nil {
			return ip
		}
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if idx := strings.Index(xff, ","); idx > 0 {
			first = xff[:idx]
		}
		return net.ParseIP(strings.TrimSpace(first))
	}

	return nil
}

// remoteIP parses the address half of a "host:port" RemoteAddr.
func remoteIP(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}

func isTrusted(ip net.IP, trusted []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
