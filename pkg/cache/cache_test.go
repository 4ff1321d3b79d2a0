package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	type input struct {
		MarketID string  `json:"marketId"`
		Spread   float64 `json:"spread"`
	}

	a, err := Key("market-state", input{MarketID: "m1", Spread: 0.02})
	require.NoError(t, err)
	b, err := Key("market-state", input{MarketID: "m1", Spread: 0.02})
	require.NoError(t, err)
	c, err := Key("market-state", input{MarketID: "m1", Spread: 0.03})
	require.NoError(t, err)
	d, err := Key("behavior", input{MarketID: "m1", Spread: 0.02})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.True(t, strings.HasPrefix(a, "market-state:"))

	_, err = Key("bad", make(chan int))
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "flow", kindOf("flow:deadbeef"))
	assert.Equal(t, "unknown", kindOf("no-separator"))
}
