package consts

type DomainType string

const (
	PlatformSubdomain DomainType = "platform_subdomain"
	CustomDomain      DomainType = "custom_domain"
)

type DNSStatus string

const (
	DNSStatusPending    DNSStatus = "pending"
	DNSStatusVerified   DNSStatus = "verified"
	DNSStatusUnverified DNSStatus = "unverified"
	DNSStatusError      DNSStatus = "error"
)

func ValidDNSStatus(s string) bool {
	switch DNSStatus(s) {
	case DNSStatusPending, DNSStatusVerified, DNSStatusUnverified, DNSStatusError:
		return true
	}
	return false
}
