package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/errs"
	"github.com/begrat/storefront-backend/internal/application/interfaces"
	"github.com/begrat/storefront-backend/internal/infra/config"
	"github.com/begrat/storefront-backend/internal/infra/db"
	"github.com/begrat/storefront-backend/internal/infra/db/repo"
	"github.com/begrat/storefront-backend/internal/infra/metrics"
	dbs "github.com/begrat/storefront-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

// VerifyDomain runs one verification attempt for one tenant: resolve
// the configured hostname, classify the result and persist status plus
// a log entry in a single transaction. Resolver failures are an
// outcome (status "error"), not an error to the caller.
type VerifyDomain struct {
	cfg        *config.PlatformConfig
	uowFactory *dbs.UOWFactory
	resolver   interfaces.DNSResolver
	alerts     interfaces.AlertSender
	metrics    *metrics.Metrics

	// concurrent attempts for one tenant coalesce into a single run so
	// status and log writes never interleave
	group singleflight.Group
}

func NewVerifyDomain(
	cfg *config.PlatformConfig,
	uowFactory *dbs.UOWFactory,
	resolver interfaces.DNSResolver,
	alerts interfaces.AlertSender,
	metrics *metrics.Metrics,
) *VerifyDomain {
	return &VerifyDomain{
		cfg:        cfg,
		uowFactory: uowFactory,
		resolver:   resolver,
		alerts:     alerts,
		metrics:    metrics,
	}
}

func (c *VerifyDomain) Execute(ctx context.Context, tenantID uuid.UUID) (dto.VerificationResult, error) {
	result, err, _ := c.group.Do(tenantID.String(), func() (any, error) {
		return c.verify(ctx, tenantID)
	})
	if err != nil {
		return dto.VerificationResult{}, err
	}
	return result.(dto.VerificationResult), nil
}

func (c *VerifyDomain) verify(ctx context.Context, tenantID uuid.UUID) (dto.VerificationResult, error) {
	domain, err := c.loadConfig(ctx, tenantID)
	if err != nil {
		return dto.VerificationResult{}, err
	}

	hostname := domain.ResolvedHostname(c.cfg.BaseDomain)
	if hostname == "" {
		return dto.VerificationResult{}, errs.ConfigError{Reason: "no hostname configured for tenant"}
	}

	result := c.check(ctx, hostname)

	checkedAt := time.Now()
	if err := c.persist(ctx, tenantID, hostname, result, checkedAt); err != nil {
		return dto.VerificationResult{}, err
	}

	c.metrics.ObserveVerification(string(result.Status))
	slog.Info("domain verification finished", "tenant", tenantID, "hostname", hostname, "status", result.Status)

	if domain.DomainType == consts.PlatformSubdomain && result.Status != consts.DNSStatusVerified {
		// the platform controls this DNS, so a failure here is ours
		c.metrics.PlatformSubdomainFailures.Inc()
		slog.Warn("platform subdomain failed verification", "tenant", tenantID, "hostname", hostname, "status", result.Status)
		if err := c.alerts.SendAlert(
			"platform subdomain failed verification: "+hostname,
			fmt.Sprintf("tenant %v, hostname %v, status %v: %v", tenantID, hostname, result.Status, result.Message),
		); err != nil {
			slog.Error("could not send ops alert", "err", err)
		}
	}

	return result, nil
}

func (c *VerifyDomain) check(ctx context.Context, hostname string) dto.VerificationResult {
	addrs, err := c.resolver.ResolveA(ctx, hostname)
	if err != nil {
		return dto.VerificationResult{
			Status:  consts.DNSStatusError,
			Message: fmt.Sprintf("DNS lookup failed: %v", err),
		}
	}

	records := make([]string, 0, len(addrs))
	matched := false
	for _, addr := range addrs {
		records = append(records, addr.String())
		if addr == c.cfg.PlatformIP {
			matched = true
		}
	}

	if !matched {
		return dto.VerificationResult{
			Status:  consts.DNSStatusUnverified,
			Records: records,
			Message: fmt.Sprintf("resolved to %v, expected %v", records, c.cfg.PlatformIP),
		}
	}
	return dto.VerificationResult{
		Status:  consts.DNSStatusVerified,
		Records: records,
		Message: "DNS check completed",
	}
}

func (c *VerifyDomain) loadConfig(ctx context.Context, tenantID uuid.UUID) (*db.TenantDomain, error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	domain, err := repo.NewDomainRepo(tx).GetDomainConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.NotFoundError{Resource: "tenant domain config"}
		}
		return nil, err
	}
	return domain, uow.Commit()
}

func (c *VerifyDomain) persist(ctx context.Context, tenantID uuid.UUID, hostname string, result dto.VerificationResult, checkedAt time.Time) error {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return err
	}

	domainRepo := repo.NewDomainRepo(tx)
	if err := domainRepo.UpdateDomainStatus(ctx, tenantID, result.Status, checkedAt); err != nil {
		_ = uow.Rollback()
		return errs.RetryableError{Err: fmt.Errorf("err updating domain status, %v", err)}
	}
	if err := domainRepo.AppendDomainLog(ctx, db.DomainLog{
		TenantID:  tenantID,
		Domain:    hostname,
		Status:    result.Status,
		Message:   result.Message,
		CreatedAt: checkedAt,
	}); err != nil {
		_ = uow.Rollback()
		return errs.RetryableError{Err: fmt.Errorf("err appending domain log, %v", err)}
	}

	if err := uow.Commit(); err != nil {
		// last_checked_at stays put, the next cycle picks the tenant up
		return errs.RetryableError{Err: err}
	}
	return nil
}
