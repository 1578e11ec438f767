package query

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/interfaces"
	"github.com/begrat/storefront-backend/internal/infra/cache"
	"github.com/begrat/storefront-backend/internal/infra/config"
	"github.com/begrat/storefront-backend/internal/infra/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ResolveTenant maps a Host header to a tenant on every request. It
// only ever touches the host cache and, on a miss, the store; never the
// network. Anything ambiguous resolves to Unresolved rather than a
// guessed tenant.
type ResolveTenant struct {
	cfg       *config.PlatformConfig
	lookup    interfaces.HostLookup
	hostCache *cache.HostCache
	metrics   *metrics.Metrics
}

func NewResolveTenant(cfg *config.PlatformConfig, lookup interfaces.HostLookup, hostCache *cache.HostCache, metrics *metrics.Metrics) *ResolveTenant {
	return &ResolveTenant{cfg: cfg, lookup: lookup, hostCache: hostCache, metrics: metrics}
}

func (q *ResolveTenant) Query(ctx context.Context, hostHeader, requestPath string) dto.Resolution {
	start := time.Now()
	resolution := q.resolve(ctx, hostHeader, requestPath)
	q.metrics.ObserveResolve(string(resolution.Kind), start)
	return resolution
}

func (q *ResolveTenant) resolve(ctx context.Context, hostHeader, requestPath string) dto.Resolution {
	// administrative surfaces are never served as tenant content, no
	// matter what host they arrive on
	if q.cfg.IsAdminPath(requestPath) {
		return dto.Resolution{Kind: dto.ResolvedPlatformRoot}
	}

	host := normalizeHost(hostHeader)
	if host == "" {
		return dto.Resolution{Kind: dto.Unresolved}
	}
	if q.cfg.IsDevHost(host) || host == q.cfg.BaseDomain {
		return dto.Resolution{Kind: dto.ResolvedPlatformRoot}
	}
	if _, err := netip.ParseAddr(host); err == nil {
		// bare IPs never name a tenant
		return dto.Resolution{Kind: dto.Unresolved}
	}

	if strings.HasSuffix(host, "."+q.cfg.BaseDomain) {
		labels := strings.Split(host, ".")
		if len(labels) < 3 {
			return dto.Resolution{Kind: dto.ResolvedPlatformRoot}
		}
		subdomain := labels[0]
		if q.cfg.IsReservedLabel(subdomain) {
			return dto.Resolution{Kind: dto.ResolvedPlatformRoot}
		}
		return q.cached(ctx, host, func(ctx context.Context) (uuid.UUID, bool, error) {
			return noRowsAsMiss(q.lookup.FindTenantBySubdomain(ctx, subdomain))
		})
	}

	return q.cached(ctx, host, func(ctx context.Context) (uuid.UUID, bool, error) {
		return noRowsAsMiss(q.lookup.FindTenantByCustomDomain(ctx, host))
	})
}

func (q *ResolveTenant) cached(ctx context.Context, host string, load cache.LoadFunc) dto.Resolution {
	entry, err := q.hostCache.GetOrLoad(ctx, host, load)
	if err != nil {
		// store trouble: report no tenant rather than guessing one
		slog.Error("host lookup failed", "host", host, "err", err)
		return dto.Resolution{Kind: dto.Unresolved}
	}
	if !entry.Found {
		return dto.Resolution{Kind: dto.Unresolved}
	}
	return dto.Resolution{Kind: dto.ResolvedTenant, TenantID: entry.TenantID}
}

func noRowsAsMiss(tenantID uuid.UUID, err error) (uuid.UUID, bool, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return tenantID, true, nil
}

func normalizeHost(hostHeader string) string {
	host := strings.TrimSpace(hostHeader)
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(strings.ToLower(host), ".")
}
