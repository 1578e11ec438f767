package repo

import (
	"context"
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/begrat/storefront-backend/internal/application/interfaces"
	"github.com/begrat/storefront-backend/internal/infra/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DomainRepo struct {
	tx pgx.Tx
}

var _ interfaces.DomainRepo = (*DomainRepo)(nil)

func NewDomainRepo(tx pgx.Tx) *DomainRepo {
	return &DomainRepo{tx: tx}
}

func (r *DomainRepo) GetDomainConfig(ctx context.Context, tenantID uuid.UUID) (*db.TenantDomain, error) {
	query := `SELECT tenant_id, domain_type, subdomain, custom_domain, dns_status, last_checked_at, created_at, updated_at
		FROM platform.tenant_domains WHERE tenant_id = $1`
	var domain db.TenantDomain
	err := r.tx.QueryRow(ctx, query, tenantID).Scan(&domain.TenantID, &domain.DomainType, &domain.Subdomain,
		&domain.CustomDomain, &domain.DNSStatus, &domain.LastCheckedAt, &domain.CreatedAt, &domain.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &domain, nil
}

func (r *DomainRepo) UpsertDomainConfig(ctx context.Context, domain db.TenantDomain) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO platform.tenant_domains(tenant_id, domain_type, subdomain, custom_domain, dns_status, last_checked_at, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (tenant_id) DO UPDATE SET
				domain_type = EXCLUDED.domain_type,
				subdomain = EXCLUDED.subdomain,
				custom_domain = EXCLUDED.custom_domain,
				dns_status = EXCLUDED.dns_status,
				last_checked_at = EXCLUDED.last_checked_at,
				updated_at = EXCLUDED.updated_at`,
		domain.TenantID, domain.DomainType, domain.Subdomain, domain.CustomDomain,
		domain.DNSStatus, domain.LastCheckedAt, domain.CreatedAt, domain.UpdatedAt)
	if err != nil {
		return err
	}

	return nil
}

func (r *DomainRepo) UpdateDomainStatus(ctx context.Context, tenantID uuid.UUID, status consts.DNSStatus, checkedAt time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE platform.tenant_domains SET dns_status = $1, last_checked_at = $2, updated_at = $2 WHERE tenant_id = $3`,
		status, checkedAt, tenantID)
	return err
}

func (r *DomainRepo) AppendDomainLog(ctx context.Context, entry db.DomainLog) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO platform.domain_logs(tenant_id, domain, status, message, created_at) VALUES ($1,$2,$3,$4,$5)`,
		entry.TenantID, entry.Domain, entry.Status, entry.Message, entry.CreatedAt)
	return err
}

// ListDueForVerification selects tenants whose status is not verified,
// who were never checked, or whose last check predates checkedBefore.
func (r *DomainRepo) ListDueForVerification(ctx context.Context, checkedBefore time.Time, limit int) ([]db.TenantDomain, error) {
	query := `SELECT tenant_id, domain_type, subdomain, custom_domain, dns_status, last_checked_at, created_at, updated_at
		FROM platform.tenant_domains
		WHERE dns_status <> $1 OR last_checked_at IS NULL OR last_checked_at < $2
		ORDER BY last_checked_at NULLS FIRST
		LIMIT $3`
	rows, err := r.tx.Query(ctx, query, consts.DNSStatusVerified, checkedBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []db.TenantDomain
	for rows.Next() {
		var domain db.TenantDomain
		if err = rows.Scan(&domain.TenantID, &domain.DomainType, &domain.Subdomain, &domain.CustomDomain,
			&domain.DNSStatus, &domain.LastCheckedAt, &domain.CreatedAt, &domain.UpdatedAt); err != nil {
			return nil, err
		}
		due = append(due, domain)
	}

	return due, rows.Err()
}

func (r *DomainRepo) RecentLogs(ctx context.Context, tenantID uuid.UUID, limit int) ([]db.DomainLog, error) {
	query := `SELECT id, tenant_id, domain, status, message, created_at FROM platform.domain_logs
		WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.tx.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []db.DomainLog
	for rows.Next() {
		var entry db.DomainLog
		if err = rows.Scan(&entry.ID, &entry.TenantID, &entry.Domain, &entry.Status, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

// HostReader serves the request path straight off the pool, skipping
// transaction setup. Reads tolerate whatever row is committed.
type HostReader struct {
	pool *pgxpool.Pool
}

var _ interfaces.HostLookup = (*HostReader)(nil)

func NewHostReader(pool *pgxpool.Pool) *HostReader {
	return &HostReader{pool: pool}
}

func (h *HostReader) FindTenantBySubdomain(ctx context.Context, subdomain string) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := h.pool.QueryRow(ctx,
		`SELECT tenant_id FROM platform.tenant_domains WHERE domain_type = $1 AND subdomain = $2`,
		consts.PlatformSubdomain, subdomain).Scan(&tenantID)
	if err != nil {
		return uuid.Nil, err
	}
	return tenantID, nil
}

func (h *HostReader) FindTenantByCustomDomain(ctx context.Context, host string) (uuid.UUID, error) {
	var tenantID uuid.UUID
	err := h.pool.QueryRow(ctx,
		`SELECT tenant_id FROM platform.tenant_domains WHERE domain_type = $1 AND custom_domain = $2`,
		consts.CustomDomain, host).Scan(&tenantID)
	if err != nil {
		return uuid.Nil, err
	}
	return tenantID, nil
}
