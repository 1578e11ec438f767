package application

import (
	"github.com/begrat/storefront-backend/internal/application/commands"
	"github.com/begrat/storefront-backend/internal/application/query"
)

type Handlers struct {
	*commands.VerifyDomain
	*commands.ProvisionSubdomain
	*commands.UpdateDomain
	*query.ResolveTenant
	*query.GetDomain
	*query.CheckDomain
}
