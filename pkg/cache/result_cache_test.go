package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPortfolioKey(t *testing.T) {
	assert.Equal(t, "v3:c20:u2:cap50000", PortfolioKey(3, 20, 2, 50000))

	// Key changes whenever any request dimension changes.
	base := PortfolioKey(1, 10, 1, 50000)
	assert.NotEqual(t, base, PortfolioKey(2, 10, 1, 50000))
	assert.NotEqual(t, base, PortfolioKey(1, 11, 1, 50000))
	assert.NotEqual(t, base, PortfolioKey(1, 10, 2, 50000))
	assert.NotEqual(t, base, PortfolioKey(1, 10, 1, 60000))
}
