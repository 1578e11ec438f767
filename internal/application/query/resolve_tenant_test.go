package query_test

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/query"
	"github.com/begrat/storefront-backend/internal/infra/cache"
	"github.com/begrat/storefront-backend/internal/infra/config"
	"github.com/begrat/storefront-backend/internal/infra/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	subdomains    map[string]uuid.UUID
	customDomains map[string]uuid.UUID
	err           error
	calls         int
}

func (f *fakeLookup) FindTenantBySubdomain(_ context.Context, subdomain string) (uuid.UUID, error) {
	f.calls++
	if f.err != nil {
		return uuid.Nil, f.err
	}
	if tenantID, ok := f.subdomains[subdomain]; ok {
		return tenantID, nil
	}
	return uuid.Nil, pgx.ErrNoRows
}

func (f *fakeLookup) FindTenantByCustomDomain(_ context.Context, host string) (uuid.UUID, error) {
	f.calls++
	if f.err != nil {
		return uuid.Nil, f.err
	}
	if tenantID, ok := f.customDomains[host]; ok {
		return tenantID, nil
	}
	return uuid.Nil, pgx.ErrNoRows
}

func testConfig() *config.PlatformConfig {
	return &config.PlatformConfig{
		BaseDomain:     "begrat.com",
		PlatformIP:     netip.MustParseAddr("139.59.3.58"),
		ReservedLabels: map[string]struct{}{"www": {}, "begrat": {}},
		AdminPrefixes:  []string{"/admin", "/api", "/metrics"},
		DevHosts:       map[string]struct{}{"localhost": {}, "127.0.0.1": {}},
	}
}

func newResolver(lookup *fakeLookup) *query.ResolveTenant {
	hostCache := cache.NewHostCache(100, time.Minute)
	return query.NewResolveTenant(testConfig(), lookup, hostCache, metrics.NewWith(prometheus.NewRegistry()))
}

func TestResolvesPlatformSubdomainToTenant(t *testing.T) {
	tenantID := uuid.New()
	resolver := newResolver(&fakeLookup{subdomains: map[string]uuid.UUID{"acme": tenantID}})

	resolution := resolver.Query(context.Background(), "acme.begrat.com", "/")
	require.Equal(t, dto.ResolvedTenant, resolution.Kind)
	require.Equal(t, tenantID, resolution.TenantID)
}

func TestResolvesCustomDomainToTenant(t *testing.T) {
	tenantID := uuid.New()
	resolver := newResolver(&fakeLookup{customDomains: map[string]uuid.UUID{"shop.example.com": tenantID}})

	resolution := resolver.Query(context.Background(), "shop.example.com", "/products")
	require.Equal(t, dto.ResolvedTenant, resolution.Kind)
	require.Equal(t, tenantID, resolution.TenantID)
}

func TestNormalizesHostBeforeLookup(t *testing.T) {
	tenantID := uuid.New()
	resolver := newResolver(&fakeLookup{subdomains: map[string]uuid.UUID{"acme": tenantID}})

	for _, host := range []string{"ACME.Begrat.Com", "acme.begrat.com:8080", "acme.begrat.com."} {
		resolution := resolver.Query(context.Background(), host, "/")
		require.Equal(t, dto.ResolvedTenant, resolution.Kind, "host %q", host)
		require.Equal(t, tenantID, resolution.TenantID)
	}
}

func TestAdminPathNeverAttributedToTenant(t *testing.T) {
	tenantID := uuid.New()
	lookup := &fakeLookup{subdomains: map[string]uuid.UUID{"acme": tenantID}}
	resolver := newResolver(lookup)

	resolution := resolver.Query(context.Background(), "acme.begrat.com", "/admin/x")
	require.Equal(t, dto.ResolvedPlatformRoot, resolution.Kind)
	require.Zero(t, lookup.calls, "admin paths must not hit the store")
}

func TestReservedAndRootHostsResolveToPlatform(t *testing.T) {
	resolver := newResolver(&fakeLookup{})

	for _, host := range []string{"begrat.com", "www.begrat.com", "localhost", "localhost:3001"} {
		resolution := resolver.Query(context.Background(), host, "/")
		require.Equal(t, dto.ResolvedPlatformRoot, resolution.Kind, "host %q", host)
	}
}

func TestUnknownHostsUnresolved(t *testing.T) {
	resolver := newResolver(&fakeLookup{})

	for _, host := range []string{"ghost.begrat.com", "unknown.example.com", "10.0.0.7", ""} {
		resolution := resolver.Query(context.Background(), host, "/")
		require.Equal(t, dto.Unresolved, resolution.Kind, "host %q", host)
	}
}

func TestStoreFailureYieldsUnresolved(t *testing.T) {
	resolver := newResolver(&fakeLookup{err: errors.New("connection refused")})

	resolution := resolver.Query(context.Background(), "acme.begrat.com", "/")
	require.Equal(t, dto.Unresolved, resolution.Kind)
}

func TestRepeatLookupsServedFromCache(t *testing.T) {
	tenantID := uuid.New()
	lookup := &fakeLookup{subdomains: map[string]uuid.UUID{"acme": tenantID}}
	resolver := newResolver(lookup)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		resolution := resolver.Query(ctx, "acme.begrat.com", "/")
		require.Equal(t, dto.ResolvedTenant, resolution.Kind)
	}
	require.Equal(t, 1, lookup.calls)

	// negative results cache too
	for i := 0; i < 5; i++ {
		resolution := resolver.Query(ctx, "ghost.begrat.com", "/")
		require.Equal(t, dto.Unresolved, resolution.Kind)
	}
	require.Equal(t, 2, lookup.calls)
}
