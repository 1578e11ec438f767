package db

import (
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/google/uuid"
)

type TenantDomain struct {
	TenantID      uuid.UUID         `db:"tenant_id"`
	DomainType    consts.DomainType `db:"domain_type"`
	Subdomain     *string           `db:"subdomain"`
	CustomDomain  *string           `db:"custom_domain"`
	DNSStatus     consts.DNSStatus  `db:"dns_status"`
	LastCheckedAt *time.Time        `db:"last_checked_at"`
	CreatedAt     time.Time         `db:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

// ResolvedHostname is the hostname the verifier checks: either the
// platform subdomain under baseDomain or the tenant's own domain.
func (t TenantDomain) ResolvedHostname(baseDomain string) string {
	if t.DomainType == consts.PlatformSubdomain && t.Subdomain != nil {
		return *t.Subdomain + "." + baseDomain
	}
	if t.CustomDomain != nil {
		return *t.CustomDomain
	}
	return ""
}

type DomainLog struct {
	ID        uint64           `db:"id"`
	TenantID  uuid.UUID        `db:"tenant_id"`
	Domain    string           `db:"domain"`
	Status    consts.DNSStatus `db:"status"`
	Message   string           `db:"message"`
	CreatedAt time.Time        `db:"created_at"`
}
