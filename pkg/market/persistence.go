package market

import "context"

// Persistence hooks allow fetched records to be mirrored to external stores.
type Persistence interface {
	// RecordAssets persists one fetched batch. Implementations decide which
	// statuses they keep.
	RecordAssets(ctx context.Context, provider string, period Period, interval Interval, records []AssetRecord) error
}
