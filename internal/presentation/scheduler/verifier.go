package scheduler

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/begrat/storefront-backend/internal/application/dto"
	"github.com/begrat/storefront-backend/internal/infra/db/repo"
	"github.com/begrat/storefront-backend/internal/infra/metrics"
	dbs "github.com/begrat/storefront-backend/pkg/db"
	"github.com/begrat/storefront-backend/pkg/env"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Verifier is what the poller drives; satisfied by commands.VerifyDomain.
type Verifier interface {
	Execute(ctx context.Context, tenantID uuid.UUID) (dto.VerificationResult, error)
}

// VerifyPoller re-checks tenant domains on a fixed interval: everything
// not verified, plus verified domains whose last check is older than the
// recheck window, since DNS can regress.
type VerifyPoller struct {
	verifier   Verifier
	uowFactory *dbs.UOWFactory
	cfg        *VerifyConfig
	metrics    *metrics.Metrics
	stop       chan struct{}
}

type VerifyConfig struct {
	interval      time.Duration
	recheckWindow time.Duration
	concurrency   int64
	pacing        time.Duration
	batchLimit    int
}

func NewVerifyConfig() *VerifyConfig {
	interval, err := strconv.Atoi(env.GetEnv("VERIFY_INTERVAL_SECONDS", "3600"))
	if err != nil {
		interval = 3600
	}
	recheck, err := strconv.Atoi(env.GetEnv("VERIFY_RECHECK_HOURS", "24"))
	if err != nil {
		recheck = 24
	}
	concurrency, err := strconv.Atoi(env.GetEnv("VERIFY_CONCURRENCY", "4"))
	if err != nil || concurrency < 1 {
		concurrency = 4
	}
	pacing, err := strconv.Atoi(env.GetEnv("VERIFY_PACING_MS", "200"))
	if err != nil {
		pacing = 200
	}
	batchLimit, err := strconv.Atoi(env.GetEnv("VERIFY_BATCH_LIMIT", "500"))
	if err != nil {
		batchLimit = 500
	}
	return &VerifyConfig{
		interval:      time.Duration(interval) * time.Second,
		recheckWindow: time.Duration(recheck) * time.Hour,
		concurrency:   int64(concurrency),
		pacing:        time.Duration(pacing) * time.Millisecond,
		batchLimit:    batchLimit,
	}
}

func NewVerifyPoller(verifier Verifier, uowFactory *dbs.UOWFactory, cfg *VerifyConfig, metrics *metrics.Metrics) *VerifyPoller {
	return &VerifyPoller{
		verifier:   verifier,
		uowFactory: uowFactory,
		cfg:        cfg,
		metrics:    metrics,
		stop:       make(chan struct{}),
	}
}

func (p *VerifyPoller) Start() {
	slog.Info("Starting verification poller...", "interval", p.cfg.interval)
	t := time.NewTimer(p.cfg.interval)
	ctx, cancel := context.WithCancel(context.Background())
	for {
		select {
		case <-t.C:
			p.RunCycle(ctx)
			t.Reset(p.cfg.interval)
		case <-p.stop:
			slog.Info("Cancelling current execution")
			cancel()
			return
		}
		// next cycle waits until the previous one finished
	}
}

// RunCycle verifies every due tenant once. One tenant failing never
// stops the rest; the cycle ends with aggregate counts.
func (p *VerifyPoller) RunCycle(ctx context.Context) {
	start := time.Now()

	due, err := p.listDue(ctx)
	if err != nil {
		slog.Error("error listing due domains", "err", err)
		return
	}
	if len(due) == 0 {
		slog.Debug("no domains due for verification")
		return
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		counts = make(map[consts.DNSStatus]int)
		failed int
	)
	sem := semaphore.NewWeighted(p.cfg.concurrency)

	for i, tenantID := range due {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(tenantID uuid.UUID) {
			defer wg.Done()
			defer sem.Release(1)
			result, err := p.verifier.Execute(ctx, tenantID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("verification failed", "tenant", tenantID, "err", err)
				failed++
				return
			}
			counts[result.Status]++
		}(tenantID)

		// pace dispatches so a large batch doesn't burst the resolver
		if p.cfg.pacing > 0 && i < len(due)-1 {
			select {
			case <-time.After(p.cfg.pacing):
			case <-ctx.Done():
			}
		}
	}

	wg.Wait()
	p.metrics.VerificationCycleDuration.Observe(time.Since(start).Seconds())
	slog.Info("verification cycle finished",
		"due", len(due),
		"verified", counts[consts.DNSStatusVerified],
		"unverified", counts[consts.DNSStatusUnverified],
		"error", counts[consts.DNSStatusError],
		"failed", failed,
		"took", time.Since(start),
	)
}

func (p *VerifyPoller) listDue(ctx context.Context) ([]uuid.UUID, error) {
	uow := p.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Rollback()

	checkedBefore := time.Now().Add(-p.cfg.recheckWindow)
	domains, err := repo.NewDomainRepo(tx).ListDueForVerification(ctx, checkedBefore, p.cfg.batchLimit)
	if err != nil {
		return nil, err
	}

	due := make([]uuid.UUID, 0, len(domains))
	for _, domain := range domains {
		due = append(due, domain.TenantID)
	}
	return due, uow.Commit()
}

func (p *VerifyPoller) Stop() {
	slog.Info("Stopping poller")
	p.stop <- struct{}{}
}
