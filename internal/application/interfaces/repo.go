package interfaces

import (
	"context"
	"net/netip"
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/begrat/storefront-backend/internal/infra/db"
	"github.com/google/uuid"
)

type DomainRepo interface {
	GetDomainConfig(ctx context.Context, tenantID uuid.UUID) (*db.TenantDomain, error)
	UpsertDomainConfig(ctx context.Context, domain db.TenantDomain) error
	UpdateDomainStatus(ctx context.Context, tenantID uuid.UUID, status consts.DNSStatus, checkedAt time.Time) error
	AppendDomainLog(ctx context.Context, entry db.DomainLog) error
	ListDueForVerification(ctx context.Context, checkedBefore time.Time, limit int) ([]db.TenantDomain, error)
	RecentLogs(ctx context.Context, tenantID uuid.UUID, limit int) ([]db.DomainLog, error)
}

// HostLookup is the only persistence surface the request path touches.
type HostLookup interface {
	FindTenantBySubdomain(ctx context.Context, subdomain string) (uuid.UUID, error)
	FindTenantByCustomDomain(ctx context.Context, host string) (uuid.UUID, error)
}

type DNSResolver interface {
	ResolveA(ctx context.Context, hostname string) ([]netip.Addr, error)
}

type Registrar interface {
	UpsertARecord(ctx context.Context, hostname string, ip netip.Addr) error
}

type AlertSender interface {
	SendAlert(subject, body string) error
}
