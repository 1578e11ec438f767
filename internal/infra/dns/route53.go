package dns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	rTypes "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/aws-sdk-go-v2/service/route53domains"
	rdTypes "github.com/aws/aws-sdk-go-v2/service/route53domains/types"
	"github.com/aws/smithy-go"
	"github.com/begrat/storefront-backend/internal/application/errs"
	"github.com/begrat/storefront-backend/internal/application/interfaces"
)

// Registrar manages platform-subdomain records in the hosted zone of
// the platform root domain.
type Registrar struct {
	cfg          *RegistrarConfig
	client       *route53.Client
	domainClient *route53domains.Client

	hostedZoneID string
}

var _ interfaces.Registrar = (*Registrar)(nil)

func NewRegistrar(awsConfig aws.Config, cfg *RegistrarConfig) *Registrar {
	domainClientCfg := awsConfig
	domainClientCfg.Region = "us-east-1"
	return &Registrar{
		cfg:          cfg,
		client:       route53.NewFromConfig(awsConfig),
		domainClient: route53domains.NewFromConfig(domainClientCfg),
	}
}

// UpsertARecord points hostname at ip. Route53's UPSERT action makes
// re-provisioning the same record a no-op, which is what the subdomain
// flow relies on when a tenant retries.
func (r *Registrar) UpsertARecord(ctx context.Context, hostname string, ip netip.Addr) error {
	zoneID, err := r.zoneID(ctx)
	if err != nil {
		return r.classify(err)
	}

	input := &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &rTypes.ChangeBatch{
			Changes: []rTypes.Change{
				{
					Action: rTypes.ChangeActionUpsert,
					ResourceRecordSet: &rTypes.ResourceRecordSet{
						Name: aws.String(hostname),
						Type: rTypes.RRTypeA,
						TTL:  aws.Int64(r.cfg.RecordTTL),
						ResourceRecords: []rTypes.ResourceRecord{
							{Value: aws.String(ip.String())},
						},
					},
				},
			},
		},
	}

	resp, err := r.client.ChangeResourceRecordSets(ctx, input)
	if err != nil {
		return r.classify(err)
	}

	slog.Info("record change submitted", "hostname", hostname, "changeID", aws.ToString(resp.ChangeInfo.Id))
	return nil
}

func (r *Registrar) CheckAvailability(ctx context.Context, domain string) (bool, error) {
	out, err := r.domainClient.CheckDomainAvailability(ctx, &route53domains.CheckDomainAvailabilityInput{
		DomainName: aws.String(domain),
	})
	if err != nil {
		return false, r.classify(err)
	}
	return out.Availability == rdTypes.DomainAvailabilityAvailable, nil
}

func (r *Registrar) zoneID(ctx context.Context) (string, error) {
	if r.hostedZoneID != "" {
		return r.hostedZoneID, nil
	}
	if r.cfg.HostedZoneID != "" {
		r.hostedZoneID = r.cfg.HostedZoneID
		return r.hostedZoneID, nil
	}

	res, err := r.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName: aws.String(r.cfg.BaseDomain),
	})
	if err != nil {
		return "", err
	}
	for _, hostedZone := range res.HostedZones {
		name := strings.TrimSuffix(aws.ToString(hostedZone.Name), ".")
		if name != r.cfg.BaseDomain {
			continue
		}
		parts := strings.SplitN(aws.ToString(hostedZone.Id), "/hostedzone/", 2)
		r.hostedZoneID = parts[len(parts)-1]
		return r.hostedZoneID, nil
	}

	return "", fmt.Errorf("no hosted zone found for %v", r.cfg.BaseDomain)
}

// classify maps provider failures onto the registrar taxonomy. Only the
// error code is logged, the raw response never travels upward.
func (r *Registrar) classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		slog.Error("registrar call failed", "code", code)
		switch code {
		case "Throttling", "ThrottlingException", "PriorRequestNotComplete":
			return errs.RegistrarError{Kind: errs.RegistrarThrottled}
		case "AccessDenied", "InvalidClientTokenId", "UnrecognizedClientException", "SignatureDoesNotMatch":
			return errs.RegistrarError{Kind: errs.RegistrarAuth}
		}
		return errs.RegistrarError{Kind: errs.RegistrarUnavailable}
	}

	slog.Error("registrar call failed", "err", err)
	return errs.RegistrarError{Kind: errs.RegistrarUnavailable}
}
