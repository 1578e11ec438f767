package errs

import "fmt"

// ConfigError marks malformed or conflicting domain settings, rejected
// at write time before anything reaches DNS.
type ConfigError struct {
	Reason string
}

func (t ConfigError) Error() string {
	return fmt.Sprintf("invalid domain configuration: %v", t.Reason)
}

type NotFoundError struct {
	Resource string
}

func (t NotFoundError) Error() string {
	return fmt.Sprintf("%v not found", t.Resource)
}

type RegistrarKind string

const (
	RegistrarAuth        RegistrarKind = "auth"
	RegistrarThrottled   RegistrarKind = "throttled"
	RegistrarUnavailable RegistrarKind = "unavailable"
)

// RegistrarError is what callers see when provisioning fails. The raw
// provider response stays out of it so credentials and account details
// never leak into API responses or logs.
type RegistrarError struct {
	Kind RegistrarKind
}

func (t RegistrarError) Error() string {
	return fmt.Sprintf("registrar request failed: %v", t.Kind)
}

type RetryableError struct {
	Err error
}

func (t RetryableError) Error() string {
	return fmt.Sprintf("retryable error: %v", t.Err)
}
