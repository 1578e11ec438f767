package dns

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/begrat/storefront-backend/internal/application/interfaces"
)

// Resolver performs bounded A-record lookups. With a nameserver
// configured it queries that server directly instead of going through
// the host's stub resolver, so checks see fresh records rather than a
// local cache.
type Resolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

var _ interfaces.DNSResolver = (*Resolver)(nil)

func NewResolver(cfg *ResolverConfig) *Resolver {
	resolver := &net.Resolver{PreferGo: true}
	if cfg.Nameserver != "" {
		nameserver := cfg.Nameserver
		resolver.Dial = func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, nameserver)
		}
	}
	return &Resolver{resolver: resolver, timeout: cfg.Timeout}
}

func (r *Resolver) ResolveA(ctx context.Context, hostname string) ([]netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.resolver.LookupNetIP(ctx, "ip4", hostname)
	if err != nil {
		return nil, err
	}
	return addrs, nil
}
