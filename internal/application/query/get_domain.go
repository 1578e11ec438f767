package query

import (
	"context"
	"errors"

	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/application/errs"
	"github.com/begrat/storefront-backend/internal/infra/config"
	"github.com/begrat/storefront-backend/internal/infra/db/repo"
	dbs "github.com/begrat/storefront-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recentLogLimit = 20

// GetDomain backs the tenant-facing "why isn't my domain working" view:
// current config plus the most recent verification log entries.
type GetDomain struct {
	cfg        *config.PlatformConfig
	uowFactory *dbs.UOWFactory
}

func NewGetDomain(cfg *config.PlatformConfig, uowFactory *dbs.UOWFactory) *GetDomain {
	return &GetDomain{cfg: cfg, uowFactory: uowFactory}
}

func (q *GetDomain) Query(ctx context.Context, tenantID uuid.UUID) (dto.DomainResponse, error) {
	uow := q.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return dto.DomainResponse{}, err
	}
	defer uow.Rollback()

	domainRepo := repo.NewDomainRepo(tx)
	domain, err := domainRepo.GetDomainConfig(ctx, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dto.DomainResponse{}, errs.NotFoundError{Resource: "tenant domain config"}
		}
		return dto.DomainResponse{}, err
	}

	logs, err := domainRepo.RecentLogs(ctx, tenantID, recentLogLimit)
	if err != nil {
		return dto.DomainResponse{}, err
	}

	resp := dto.DomainResponse{
		TenantID:         domain.TenantID,
		DomainType:       domain.DomainType,
		ResolvedHostname: domain.ResolvedHostname(q.cfg.BaseDomain),
		DNSStatus:        domain.DNSStatus,
		LastCheckedAt:    domain.LastCheckedAt,
		Logs:             make([]dto.DomainLogEntry, 0, len(logs)),
	}
	if domain.Subdomain != nil {
		resp.Subdomain = *domain.Subdomain
	}
	if domain.CustomDomain != nil {
		resp.CustomDomain = *domain.CustomDomain
	}
	for _, entry := range logs {
		resp.Logs = append(resp.Logs, dto.DomainLogEntry{
			Domain:    entry.Domain,
			Status:    entry.Status,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		})
	}

	return resp, nil
}
