package utilization

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPercent(t *testing.T) {
	pct, ok := Percent(d("250"), d("1000"))
	assert.True(t, ok)
	assert.True(t, pct.Equal(d("25")))

	pct, ok = Percent(d("100"), d("300"))
	assert.True(t, ok)
	assert.Equal(t, "33.3", Format(pct))

	_, ok = Percent(d("100"), decimal.Zero)
	assert.False(t, ok)

	_, ok = Percent(d("100"), d("-5"))
	assert.False(t, ok)
}

func TestExceeds(t *testing.T) {
	assert.True(t, Exceeds(d("30.1"), d("30")))
	assert.False(t, Exceeds(d("30"), d("30")))
	assert.False(t, Exceeds(d("5"), d("30")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "10", Format(d("10")))
	assert.Equal(t, "10", Format(d("10.00")))
	assert.Equal(t, "9.5", Format(d("9.5")))
	assert.Equal(t, "66.7", Format(d("66.66")))
}
