package driven

import "errors"

// Error kinds shared by all driven adapters. Adapters wrap the underlying
// cause so callers can test the kind with errors.Is.
var (
	// ErrStorage indicates the record store failed.
	ErrStorage = errors.New("storage error")

	// ErrRemoteCall indicates a call to the provider API failed.
	ErrRemoteCall = errors.New("remote call error")

	// ErrIO indicates a file could not be written.
	ErrIO = errors.New("io error")
)
