package dto

import (
	"time"

	"github.com/begrat/storefront-backend/internal/application/consts"
	"github.com/google/uuid"
)

type ResolutionKind string

const (
	ResolvedTenant       ResolutionKind = "tenant"
	ResolvedPlatformRoot ResolutionKind = "platform_root"
	Unresolved           ResolutionKind = "unresolved"
)

// Resolution is what the routing layer gets for every request: either a
// tenant to serve, the platform root, or nothing.
type Resolution struct {
	Kind     ResolutionKind
	TenantID uuid.UUID
}

type VerificationResult struct {
	Status  consts.DNSStatus `json:"status"`
	Records []string         `json:"records,omitempty"`
	Message string           `json:"message"`
}

type ProvisionSubdomainRequest struct {
	Subdomain string `json:"subdomain"`
}

type ProvisionSubdomainResponse struct {
	Hostname  string           `json:"hostname"`
	DNSStatus consts.DNSStatus `json:"dnsStatus"`
}

type UpdateDomainRequest struct {
	DomainType   consts.DomainType `json:"domainType"`
	Subdomain    string            `json:"subdomain,omitempty"`
	CustomDomain string            `json:"customDomain,omitempty"`
}

type DomainLogEntry struct {
	Domain    string           `json:"domain"`
	Status    consts.DNSStatus `json:"status"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}

type DomainResponse struct {
	TenantID         uuid.UUID         `json:"tenantId"`
	DomainType       consts.DomainType `json:"domainType"`
	Subdomain        string            `json:"subdomain,omitempty"`
	CustomDomain     string            `json:"customDomain,omitempty"`
	ResolvedHostname string            `json:"resolvedHostname"`
	DNSStatus        consts.DNSStatus  `json:"dnsStatus"`
	LastCheckedAt    *time.Time        `json:"lastCheckedAt,omitempty"`
	Logs             []DomainLogEntry  `json:"logs"`
}

type CheckDomainParams struct {
	Domain string `json:"domain"`
}

type DomainAvailability struct {
	Available bool `json:"available"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
