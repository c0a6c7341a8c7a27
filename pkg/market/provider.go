package market

import "context"

// Provider is an upstream source of price history and descriptive metadata.
// Implementations are fallible and rate limited; callers own retries.
type Provider interface {
	// History returns the raw price table for ticker over period at interval.
	// An unknown ticker yields an empty table rather than an error.
	History(ctx context.Context, ticker string, period Period, interval Interval) (*History, error)
	// Metadata returns the provider's descriptive fields for ticker.
	Metadata(ctx context.Context, ticker string) (Metadata, error)
}
