package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentDiscount(t *testing.T) {
	assert.Equal(t, 0.0, PercentDiscount(100, 100))
	assert.Equal(t, 30.0, PercentDiscount(100, 70))
	assert.Equal(t, 0.0, PercentDiscount(0, 50))
	assert.Equal(t, 0.0, PercentDiscount(-10, 5))
	// price above base never yields a negative discount
	assert.Equal(t, 0.0, PercentDiscount(100, 150))
}

func TestRoundToStep(t *testing.T) {
	assert.Equal(t, 162.0, RoundToStep(161.5, 1))
	assert.Equal(t, 160.0, RoundToStep(162.4, 5))
	assert.Equal(t, 161.73, RoundToStep(161.73, 0))
}

func TestSellRulePrice(t *testing.T) {
	rule := SellRule{Markup: 1.35, Add: 0, Step: 1}
	assert.Equal(t, 162.0, rule.Price(120))

	withAdd := SellRule{Markup: 1.0, Add: 7.5, Step: 0.5}
	assert.Equal(t, 107.5, withAdd.Price(100))
}
