package provider

import "errors"

var (
	// ErrCredential is returned when a provider rejects the supplied credentials.
	// Never retried: resubmitting the same credentials cannot succeed.
	ErrCredential = errors.New("provider rejected credentials")

	// ErrNotFound is returned when the requested resource does not exist at the provider.
	ErrNotFound = errors.New("resource not found")

	// ErrIntegrity is returned when a downloaded file fails checksum verification
	// after the bounded retry budget is exhausted.
	ErrIntegrity = errors.New("checksum verification failed")

	// ErrUnavailable is returned when a provider could not be reached after
	// all transient-failure retries.
	ErrUnavailable = errors.New("provider unavailable")
)
