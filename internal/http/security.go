package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// DefaultTrustedProxies are loopback and the private ranges, the usual home of
// a reverse proxy in front of a single-user ledger.
var DefaultTrustedProxies = []string{"127.0.0.0/8", "::1/128", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

var defaultProxies = mustParseProxyList(DefaultTrustedProxies)

// ProxyList holds the networks whose peers may report the client address
// through X-Forwarded-For or X-Real-IP.
type ProxyList struct {
	nets []*net.IPNet
}

// ParseProxyList parses CIDR blocks. A bare address is taken as a single
// host.
func ParseProxyList(cidrs []string) (*ProxyList, error) {
	p := &ProxyList{}
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			ip := net.ParseIP(c)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", c)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip, bits = ip.To4(), 8*net.IPv4len
			}
			p.nets = append(p.nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, network, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", c, err)
		}
		p.nets = append(p.nets, network)
	}
	return p, nil
}

func mustParseProxyList(cidrs []string) *ProxyList {
	p, err := ParseProxyList(cidrs)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *ProxyList) trusts(ip net.IP) bool {
	for _, network := range p.nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP returns the address a request originated from. Forwarding headers
// are read only when the direct peer is trusted. X-Forwarded-For is walked
// from the right, skipping trusted hops, so a client cannot spoof its address
// by prepending entries.
func (p *ProxyList) ClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !p.trusts(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		client := ""
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			ip := net.ParseIP(hop)
			if ip == nil {
				break
			}
			client = hop
			if !p.trusts(ip) {
				break
			}
		}
		if client != "" {
			return client
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}

	return directIP
}
