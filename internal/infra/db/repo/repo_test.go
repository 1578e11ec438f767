package repo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/begrat/storefront-backend/internal/infra/db"
	"github.com/begrat/storefront-backend/internal/infra/db/repo"
	"github.com/begrat/storefront-backend/internal/testinfra"
	dbs "github.com/begrat/storefront-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

var uowFactory *dbs.UOWFactory

func TestMain(m *testing.M) {
	uowFactory = dbs.NewUoWFactory(testinfra.Pool)
	code := m.Run()

	os.Exit(code)
}

func str(s string) *string { return &s }

func TestUpsertAndGetDomainConfig(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	tenantID := uuid.New()
	now := time.Now().Truncate(time.Microsecond)
	domain := db.TenantDomain{
		TenantID:   tenantID,
		DomainType: consts.PlatformSubdomain,
		Subdomain:  str("acme"),
		DNSStatus:  consts.DNSStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	ctx := context.Background()
	domainRepo := repo.NewDomainRepo(tx)

	err = domainRepo.UpsertDomainConfig(ctx, domain)
	require.NoError(t, err)

	got, err := domainRepo.GetDomainConfig(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, consts.PlatformSubdomain, got.DomainType)
	require.Equal(t, "acme", *got.Subdomain)
	require.Nil(t, got.CustomDomain)
	require.Equal(t, consts.DNSStatusPending, got.DNSStatus)
	require.Nil(t, got.LastCheckedAt)

	// switching to a custom domain replaces the subdomain
	updated := domain
	updated.DomainType = consts.CustomDomain
	updated.Subdomain = nil
	updated.CustomDomain = str("shop.example.com")
	err = domainRepo.UpsertDomainConfig(ctx, updated)
	require.NoError(t, err)

	got, err = domainRepo.GetDomainConfig(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, consts.CustomDomain, got.DomainType)
	require.Nil(t, got.Subdomain)
	require.Equal(t, "shop.example.com", *got.CustomDomain)
}

func TestCustomDomainUniqueAcrossTenants(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	domainRepo := repo.NewDomainRepo(tx)
	now := time.Now()

	err = domainRepo.UpsertDomainConfig(ctx, db.TenantDomain{
		TenantID:     uuid.New(),
		DomainType:   consts.CustomDomain,
		CustomDomain: str("taken.example.com"),
		DNSStatus:    consts.DNSStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)

	err = domainRepo.UpsertDomainConfig(ctx, db.TenantDomain{
		TenantID:     uuid.New(),
		DomainType:   consts.CustomDomain,
		CustomDomain: str("taken.example.com"),
		DNSStatus:    consts.DNSStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "23505", pgErr.Code)
}

func TestUpdateDomainStatusAndLogs(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	domainRepo := repo.NewDomainRepo(tx)
	tenantID := uuid.New()
	now := time.Now().Truncate(time.Microsecond)

	err = domainRepo.UpsertDomainConfig(ctx, db.TenantDomain{
		TenantID:   tenantID,
		DomainType: consts.PlatformSubdomain,
		Subdomain:  str("statusful"),
		DNSStatus:  consts.DNSStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	checkedAt := now.Add(time.Minute)
	err = domainRepo.UpdateDomainStatus(ctx, tenantID, consts.DNSStatusVerified, checkedAt)
	require.NoError(t, err)

	err = domainRepo.AppendDomainLog(ctx, db.DomainLog{
		TenantID:  tenantID,
		Domain:    "statusful.begrat.com",
		Status:    consts.DNSStatusVerified,
		Message:   "DNS check completed",
		CreatedAt: checkedAt,
	})
	require.NoError(t, err)

	got, err := domainRepo.GetDomainConfig(ctx, tenantID)
	require.NoError(t, err)
	require.Equal(t, consts.DNSStatusVerified, got.DNSStatus)
	require.NotNil(t, got.LastCheckedAt)
	require.WithinDuration(t, checkedAt, *got.LastCheckedAt, time.Millisecond)

	logs, err := domainRepo.RecentLogs(ctx, tenantID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "statusful.begrat.com", logs[0].Domain)
	require.Equal(t, consts.DNSStatusVerified, logs[0].Status)
}

func TestRecentLogsNewestFirst(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	domainRepo := repo.NewDomainRepo(tx)
	tenantID := uuid.New()
	base := time.Now().Truncate(time.Microsecond)

	for i := 0; i < 3; i++ {
		err = domainRepo.AppendDomainLog(ctx, db.DomainLog{
			TenantID:  tenantID,
			Domain:    "logged.begrat.com",
			Status:    consts.DNSStatusError,
			Message:   "attempt",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	logs, err := domainRepo.RecentLogs(ctx, tenantID, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.True(t, logs[0].CreatedAt.After(logs[1].CreatedAt))
}

func TestListDueForVerification(t *testing.T) {
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	ctx := context.Background()
	domainRepo := repo.NewDomainRepo(tx)
	now := time.Now().Truncate(time.Microsecond)
	recent := now.Add(-time.Hour)
	stale := now.Add(-48 * time.Hour)
	cutoff := now.Add(-24 * time.Hour)

	pending := uuid.New()
	verifiedFresh := uuid.New()
	verifiedStale := uuid.New()

	insert := func(tenantID uuid.UUID, sub string, status consts.DNSStatus, checkedAt *time.Time) {
		err := domainRepo.UpsertDomainConfig(ctx, db.TenantDomain{
			TenantID:      tenantID,
			DomainType:    consts.PlatformSubdomain,
			Subdomain:     str(sub),
			DNSStatus:     status,
			LastCheckedAt: checkedAt,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		require.NoError(t, err)
	}

	insert(pending, "due-pending", consts.DNSStatusPending, nil)
	insert(verifiedFresh, "due-fresh", consts.DNSStatusVerified, &recent)
	insert(verifiedStale, "due-stale", consts.DNSStatusVerified, &stale)

	due, err := domainRepo.ListDueForVerification(ctx, cutoff, 100)
	require.NoError(t, err)

	dueIDs := make(map[uuid.UUID]bool)
	for _, domain := range due {
		dueIDs[domain.TenantID] = true
	}
	require.True(t, dueIDs[pending], "never-checked pending tenant must be due")
	require.True(t, dueIDs[verifiedStale], "verified but stale tenant must be re-checked")
	require.False(t, dueIDs[verifiedFresh], "freshly verified tenant must not be due")
}

func TestHostReader(t *testing.T) {
	ctx := context.Background()
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)

	domainRepo := repo.NewDomainRepo(tx)
	now := time.Now()
	subTenant := uuid.New()
	customTenant := uuid.New()

	err = domainRepo.UpsertDomainConfig(ctx, db.TenantDomain{
		TenantID:   subTenant,
		DomainType: consts.PlatformSubdomain,
		Subdomain:  str("reader"),
		DNSStatus:  consts.DNSStatusVerified,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	err = domainRepo.UpsertDomainConfig(ctx, db.TenantDomain{
		TenantID:     customTenant,
		DomainType:   consts.CustomDomain,
		CustomDomain: str("reader.example.com"),
		DNSStatus:    consts.DNSStatusVerified,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	require.NoError(t, uow.Commit())

	reader := repo.NewHostReader(testinfra.Pool)

	gotSub, err := reader.FindTenantBySubdomain(ctx, "reader")
	require.NoError(t, err)
	require.Equal(t, subTenant, gotSub)

	gotCustom, err := reader.FindTenantByCustomDomain(ctx, "reader.example.com")
	require.NoError(t, err)
	require.Equal(t, customTenant, gotCustom)

	// a subdomain never matches as custom domain and vice versa
	_, err = reader.FindTenantByCustomDomain(ctx, "reader")
	require.Error(t, err)
	_, err = reader.FindTenantBySubdomain(ctx, "reader.example.com")
	require.Error(t, err)
}
