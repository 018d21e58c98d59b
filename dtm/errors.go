package dtm

import "errors"

// Fatal error kinds surfaced by the transport. All of them end the debug
// session; use errors.Is to distinguish them.
var (
	// ErrUnresponsive means the debug bus kept answering busy past the
	// session's retry policy.
	ErrUnresponsive = errors.New("debug bus unresponsive")

	// ErrAuthRequired means the debug unit demands authentication, which
	// this driver does not support.
	ErrAuthRequired = errors.New("target requires debug authentication")

	// ErrNoDebugRAM means the debug unit reports no Debug RAM to stage
	// instructions in.
	ErrNoDebugRAM = errors.New("target reports no debug RAM")
)
