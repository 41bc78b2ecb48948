package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBase(t *testing.T) {
	conv := NewConverter("SAR", map[string]float64{"USD": 3.70})

	assert.Equal(t, 100.0, conv.ToBase(100, "SAR"))
	assert.Equal(t, 100.0, conv.ToBase(100, "sar"))
	assert.Equal(t, 100.0, conv.ToBase(100, ""))
	assert.InDelta(t, 370.0, conv.ToBase(100, "USD"), 1e-9)

	// unknown currency passes through unconverted
	assert.Equal(t, 100.0, conv.ToBase(100, "EUR"))
}

func TestFromBase(t *testing.T) {
	conv := NewConverter("SAR", map[string]float64{"USD": 3.70})

	usd, ok := conv.FromBase(370, "USD")
	assert.True(t, ok)
	assert.InDelta(t, 100.0, usd, 1e-9)

	same, ok := conv.FromBase(55, "SAR")
	assert.True(t, ok)
	assert.Equal(t, 55.0, same)

	_, ok = conv.FromBase(55, "EUR")
	assert.False(t, ok)
}
