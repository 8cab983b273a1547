package providers

import "context"

type freshDataKey struct{}

// WithFreshData marks ctx so that data sources skip cached responses for the
// calls made with it. Fresh results still refresh the cache.
func WithFreshData(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshDataKey{}, true)
}

// FreshData reports whether ctx asks for uncached data.
func FreshData(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshDataKey{}).(bool)
	return fresh
}
