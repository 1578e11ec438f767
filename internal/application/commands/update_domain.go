package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/errs"
	"github.com/begrat/storefront-backend/internal/infra/cache"
	"github.com/begrat/storefront-backend/internal/infra/config"
	"github.com/begrat/storefront-backend/internal/infra/db"
	"github.com/begrat/storefront-backend/internal/infra/db/repo"
	dbs "github.com/begrat/storefront-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// UpdateDomain applies a tenant-initiated domain settings change. Any
// change resets dns_status to pending; verification decides the rest.
type UpdateDomain struct {
	cfg        *config.PlatformConfig
	uowFactory *dbs.UOWFactory
	hostCache  *cache.HostCache
}

func NewUpdateDomain(cfg *config.PlatformConfig, uowFactory *dbs.UOWFactory, hostCache *cache.HostCache) *UpdateDomain {
	return &UpdateDomain{cfg: cfg, uowFactory: uowFactory, hostCache: hostCache}
}

func (c *UpdateDomain) Execute(ctx context.Context, tenantID uuid.UUID, req dto.UpdateDomainRequest) error {
	domain, err := c.buildConfig(tenantID, req)
	if err != nil {
		return err
	}

	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}

	domainRepo := repo.NewDomainRepo(tx)

	var oldHostname string
	existing, err := domainRepo.GetDomainConfig(ctx, tenantID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		_ = uow.Rollback()
		return err
	}
	if existing != nil {
		oldHostname = existing.ResolvedHostname(c.cfg.BaseDomain)
		domain.CreatedAt = existing.CreatedAt
	}

	if err := domainRepo.UpsertDomainConfig(ctx, domain); err != nil {
		_ = uow.Rollback()
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return errs.ConfigError{Reason: "domain already claimed by another tenant"}
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	newHostname := domain.ResolvedHostname(c.cfg.BaseDomain)
	c.hostCache.Invalidate(oldHostname, newHostname)
	slog.Info("domain settings updated", "tenant", tenantID, "hostname", newHostname)

	return nil
}

// buildConfig enforces the one-of invariant: exactly the field matching
// domain_type is set, the other is null, status drops back to pending.
func (c *UpdateDomain) buildConfig(tenantID uuid.UUID, req dto.UpdateDomainRequest) (db.TenantDomain, error) {
	now := time.Now()
	domain := db.TenantDomain{
		TenantID:   tenantID,
		DomainType: req.DomainType,
		DNSStatus:  consts.DNSStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	switch req.DomainType {
	case consts.PlatformSubdomain:
		subdomain := strings.ToLower(strings.TrimSpace(req.Subdomain))
		if !subdomainPattern.MatchString(subdomain) {
			return db.TenantDomain{}, errs.ConfigError{Reason: "subdomain must be a valid DNS label"}
		}
		if c.cfg.IsReservedLabel(subdomain) {
			return db.TenantDomain{}, errs.ConfigError{Reason: "subdomain is reserved"}
		}
		domain.Subdomain = &subdomain
	case consts.CustomDomain:
		host := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(req.CustomDomain), "."))
		if host == "" || !strings.Contains(host, ".") {
			return db.TenantDomain{}, errs.ConfigError{Reason: "custom domain must be a fully-qualified hostname"}
		}
		if host == c.cfg.BaseDomain || strings.HasSuffix(host, "."+c.cfg.BaseDomain) {
			return db.TenantDomain{}, errs.ConfigError{Reason: "custom domain can't live under the platform domain"}
		}
		if c.cfg.IsDevHost(host) {
			return db.TenantDomain{}, errs.ConfigError{Reason: "custom domain can't be a local host"}
		}
		domain.CustomDomain = &host
	default:
		return db.TenantDomain{}, errs.ConfigError{Reason: "unknown domain type"}
	}

	return domain, nil
}
