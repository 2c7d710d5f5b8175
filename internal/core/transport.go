package core

import "context"

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/JonMunkholm/catalogsync/internal/core Transport,StatusStore

// Transport sends one batch to the external synchronization service.
//
// action is the domain tag telling the receiver which schema to expect.
// Implementations own their timeout. A returned error is treated as a
// batch-level failure; its message is stored verbatim on every record.
type Transport interface {
	Sync(ctx context.Context, action Domain, records []*Record) (*SyncResponse, error)
}

// SyncResponse is the batch envelope returned by the service.
type SyncResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error,omitempty"`
	Results []ItemResult `json:"results,omitempty"`
}

// ItemResult is the outcome of one record, matched by position.
type ItemResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, action Domain, records []*Record) (*SyncResponse, error)

func (f TransportFunc) Sync(ctx context.Context, action Domain, records []*Record) (*SyncResponse, error) {
	return f(ctx, action, records)
}
