package config

import (
	"log/slog"
	"net/netip"
	"strings"

	"github.com/begrat/storefront-backend/pkg/env"
)

// PlatformConfig describes the serving identity of the platform itself:
// the root domain tenants get subdomains under, and the IP every tenant
// hostname is expected to resolve to.
type PlatformConfig struct {
	BaseDomain     string
	PlatformIP     netip.Addr
	ReservedLabels map[string]struct{}
	AdminPrefixes  []string
	DevHosts       map[string]struct{}
}

func NewPlatformConfig() *PlatformConfig {
	baseDomain := env.GetEnv("PLATFORM_BASE_DOMAIN", "begrat.com")
	ip, err := netip.ParseAddr(env.GetEnv("PLATFORM_IP", "139.59.3.58"))
	if err != nil {
		slog.Error("invalid PLATFORM_IP, falling back to default", "err", err)
		ip = netip.MustParseAddr("139.59.3.58")
	}

	reserved := map[string]struct{}{"www": {}}
	// the bare root label never names a tenant
	if rootLabel, _, ok := strings.Cut(baseDomain, "."); ok {
		reserved[rootLabel] = struct{}{}
	}
	for _, label := range strings.Split(env.GetEnv("PLATFORM_RESERVED_LABELS", ""), ",") {
		if label = strings.TrimSpace(label); label != "" {
			reserved[label] = struct{}{}
		}
	}

	var prefixes []string
	for _, p := range strings.Split(env.GetEnv("PLATFORM_ADMIN_PREFIXES", "/admin,/api,/metrics"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}

	devHosts := make(map[string]struct{})
	for _, h := range strings.Split(env.GetEnv("PLATFORM_DEV_HOSTS", "localhost,127.0.0.1"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			devHosts[h] = struct{}{}
		}
	}

	return &PlatformConfig{
		BaseDomain:     baseDomain,
		PlatformIP:     ip,
		ReservedLabels: reserved,
		AdminPrefixes:  prefixes,
		DevHosts:       devHosts,
	}
}

func (c *PlatformConfig) IsReservedLabel(label string) bool {
	_, ok := c.ReservedLabels[label]
	return ok
}

func (c *PlatformConfig) IsDevHost(host string) bool {
	_, ok := c.DevHosts[host]
	return ok
}

func (c *PlatformConfig) IsAdminPath(path string) bool {
	for _, prefix := range c.AdminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
