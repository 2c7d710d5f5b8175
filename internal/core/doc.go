// Package core validates product catalog sheets and exports them to an
// external synchronization service.
//
// This package holds the pipeline independent of any transport or storage.
// Web handlers, the server binary and tests all drive it through [Service].
//
// # Pipeline
//
// One invocation flows through four stages:
//
//  1. Extraction: [Extract] turns a sheet row into a [Record] using the
//     domain [Schema]. Identity, the export flag and the selected field
//     groups are read; parse failures are kept for validation.
//  2. Validation: [Validate] runs the domain [Catalog] rules and returns
//     sorted findings. Error findings block export; warnings do not.
//  3. Export: [Coordinator.ExportBatch] selects eligible records, applies
//     the caller's [OverrideMode], calls the [Transport] once and maps each
//     result back to its record.
//  4. Status: [Tracker] enforces the NONE/PENDING/DONE/FAILED transitions
//     and persists them through a [StatusStore].
//
// [BuildReport] folds evaluations and statuses into a cross-domain summary
// without touching either.
//
// # Domains
//
// Each catalog domain is a [Definition] registered in a [Registry]: a schema
// plus the rules that apply to it. The concrete domains live in the
// domains subpackage:
//
//	registry := domains.NewRegistry()
//	def, err := registry.Get(core.DomainMedia)
//
// # Error Handling
//
// Extraction and validation never fail; data problems are findings with a
// stable code (see codes.go). Transport problems become FAILED statuses.
// Only configuration problems return errors, before any status is written:
//
//   - [ErrUnknownDomain], [ErrNoTransport], [ErrNoStatusStore]
//   - [ErrNoEvaluation] when exporting a domain that was never validated
//   - [ErrTooManyExports] when the [ExportLimiter] has no free slot
//
// [MapError] turns these into user-facing messages with a support code.
//
// # Activity
//
// Validation runs, export runs and status resets are recorded by
// [ActivityLog] and fanned out to every [LogSink].
package core
