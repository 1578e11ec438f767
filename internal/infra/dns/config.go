package dns

import (
	"strconv"
	"time"

	"github.com/begrat/storefront-backend/pkg/env"
)

type ResolverConfig struct {
	Timeout time.Duration
	// optional "host:port" of the nameserver to query directly
	Nameserver string
}

func NewResolverConfig() *ResolverConfig {
	timeout, err := strconv.Atoi(env.GetEnv("DNS_TIMEOUT_SECONDS", "5"))
	if err != nil {
		timeout = 5
	}
	return &ResolverConfig{
		Timeout:    time.Duration(timeout) * time.Second,
		Nameserver: env.GetEnv("DNS_NAMESERVER", ""),
	}
}

type RegistrarConfig struct {
	BaseDomain   string
	HostedZoneID string
	RecordTTL    int64
}

func NewRegistrarConfig(baseDomain string) *RegistrarConfig {
	ttl, err := strconv.Atoi(env.GetEnv("REGISTRAR_RECORD_TTL", "300"))
	if err != nil {
		ttl = 300
	}
	return &RegistrarConfig{
		BaseDomain:   baseDomain,
		HostedZoneID: env.GetEnv("REGISTRAR_HOSTED_ZONE_ID", ""),
		RecordTTL:    int64(ttl),
	}
}
