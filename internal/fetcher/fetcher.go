package fetcher

import (
	"context"

	"bpi-tracker/internal/domain"
)

// PriceFetcher performs one fetch-and-timestamp cycle against a price source.
type PriceFetcher interface {
	FetchPrice(ctx context.Context) (domain.Sample, error)
}

// Func adapts a plain function to PriceFetcher.
type Func func(ctx context.Context) (domain.Sample, error)

// FetchPrice calls f.
func (f Func) FetchPrice(ctx context.Context) (domain.Sample, error) {
	return f(ctx)
}

var _ PriceFetcher = Func(nil)
