package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These describe resources, not validation failures:
// - ErrNotFound: no record exists for the key
// - ErrUnavailable: backing store or upstream temporarily unreachable
// - ErrClosed: component already shut down and refusing new work
//
// For bad caller input use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrClosed      = errors.New("closed")
)
