package query

import (
	"context"

	"github.com/begrat/storefront-backend/internal/infra/dns"
)

type CheckDomain struct {
	*dns.Registrar
}

func NewCheckDomain(registrar *dns.Registrar) *CheckDomain {
	return &CheckDomain{
		registrar,
	}
}

func (c *CheckDomain) Query(ctx context.Context, domain string) (bool, error) {
	return c.CheckAvailability(ctx, domain)
}
