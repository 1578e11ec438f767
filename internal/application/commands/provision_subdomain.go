package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/errs"
	"github.com/begrat/storefront-backend/internal/application/interfaces"
	"github.com/begrat/storefront-backend/internal/infra/cache"
	"github.com/begrat/storefront-backend/internal/infra/config"
	"github.com/begrat/storefront-backend/internal/infra/db"
	"github.com/begrat/storefront-backend/internal/infra/db/repo"
	dbs "github.com/begrat/storefront-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ProvisionSubdomain claims a platform subdomain for a tenant and asks
// the registrar to point it at the platform IP. The registrar call runs
// inside the transaction: if the record upsert fails, the claim rolls
// back and the subdomain stays free.
type ProvisionSubdomain struct {
	cfg        *config.PlatformConfig
	uowFactory *dbs.UOWFactory
	registrar  interfaces.Registrar
	hostCache  *cache.HostCache
}

func NewProvisionSubdomain(
	cfg *config.PlatformConfig,
	uowFactory *dbs.UOWFactory,
	registrar interfaces.Registrar,
	hostCache *cache.HostCache,
) *ProvisionSubdomain {
	return &ProvisionSubdomain{
		cfg:        cfg,
		uowFactory: uowFactory,
		registrar:  registrar,
		hostCache:  hostCache,
	}
}

func (c *ProvisionSubdomain) Execute(ctx context.Context, tenantID uuid.UUID, subdomain string) (dto.ProvisionSubdomainResponse, error) {
	if !subdomainPattern.MatchString(subdomain) {
		return dto.ProvisionSubdomainResponse{}, errs.ConfigError{Reason: "subdomain must be a valid DNS label"}
	}
	if c.cfg.IsReservedLabel(subdomain) {
		return dto.ProvisionSubdomainResponse{}, errs.ConfigError{Reason: fmt.Sprintf("subdomain %q is reserved", subdomain)}
	}

	hostname := subdomain + "." + c.cfg.BaseDomain

	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return dto.ProvisionSubdomainResponse{}, err
	}

	now := time.Now()
	err = repo.NewDomainRepo(tx).UpsertDomainConfig(ctx, db.TenantDomain{
		TenantID:   tenantID,
		DomainType: consts.PlatformSubdomain,
		Subdomain:  &subdomain,
		DNSStatus:  consts.DNSStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		_ = uow.Rollback()
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return dto.ProvisionSubdomainResponse{}, errs.ConfigError{Reason: "subdomain already taken"}
		}
		return dto.ProvisionSubdomainResponse{}, err
	}

	if err := c.registrar.UpsertARecord(ctx, hostname, c.cfg.PlatformIP); err != nil {
		_ = uow.Rollback()
		return dto.ProvisionSubdomainResponse{}, err
	}

	if err := uow.Commit(); err != nil {
		return dto.ProvisionSubdomainResponse{}, err
	}

	// the record was accepted, not propagated; the verifier promotes
	// the status once the hostname actually resolves
	c.hostCache.Invalidate(hostname)
	slog.Info("subdomain provisioned", "tenant", tenantID, "hostname", hostname)

	return dto.ProvisionSubdomainResponse{Hostname: hostname, DNSStatus: consts.DNSStatusPending}, nil
}
