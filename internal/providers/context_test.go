package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreshData(t *testing.T) {
	ctx := context.Background()
	assert.False(t, FreshData(ctx))

	fresh := WithFreshData(ctx)
	assert.True(t, FreshData(fresh))

	derived, cancel := context.WithCancel(fresh)
	defer cancel()
	assert.True(t, FreshData(derived))
}
