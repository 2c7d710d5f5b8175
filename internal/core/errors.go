package core

import "errors"

// Configuration-class errors. These abort an invocation before any status is
// written; data and transport problems are reported as findings and statuses instead.
var (
	ErrUnknownDomain     = errors.New("unknown domain")
	ErrNoTransport       = errors.New("no sync transport configured")
	ErrNoStatusStore     = errors.New("no status store configured")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoEvaluation      = errors.New("no validation run for domain")
	ErrTooManyExports    = errors.New("too many concurrent exports, please try again later")
	ErrExportInProgress  = errors.New("export already in progress for domain")
)
