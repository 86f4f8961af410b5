package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0.00000000"},
		{1, "0.00000001"},
		{150000000, "1.50000000"},
		{-150000000, "-1.50000000"},
		{123456789012, "1,234.56789012"},
		{math.MinInt64, "-92,233,720,368.54775808"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.amount), "amount %d", tt.amount)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2023-11-14 22:13", FormatDate(1700000000))
	assert.Equal(t, "", FormatDate(0))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "Unconfirmed", StatusText(0))
	assert.Equal(t, "Confirming (3 of 10 confirmations)", StatusText(3))
	assert.Equal(t, "Confirmed (1,500 confirmations)", StatusText(1500))

	assert.Equal(t, "tx_unconfirmed", statusIcon(0))
	assert.Equal(t, "tx_clock1", statusIcon(1))
	assert.Equal(t, "tx_clock5", statusIcon(9))
	assert.Equal(t, "tx_confirmed", statusIcon(10))
}

func TestDisplayTokens(t *testing.T) {
	assert.Equal(t, colorUnconfirmed, amountColor(-5, 0))
	assert.Equal(t, colorNegative, amountColor(-5, 3))
	assert.Equal(t, colorNormal, amountColor(5, 3))

	assert.Equal(t, colorBare, addressColor(""))
	assert.Equal(t, colorNormal, addressColor("savings"))

	assert.Equal(t, "savings (Sabc)", addressDisplay("savings", "Sabc"))
	assert.Equal(t, "Sabc", addressDisplay("", "Sabc"))
	assert.Equal(t, "(n/a)", addressDisplay("", ""))

	assert.Equal(t, "(no label)", labelDisplay(""))
}
