package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSIBounds(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	rsi, err := RSI(rising, 14)
	require.NoError(t, err)
	assert.Greater(t, rsi, 70.0, "monotonically rising prices should read overbought")

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 200 - float64(i)
	}
	rsi, err = RSI(falling, 14)
	require.NoError(t, err)
	assert.Less(t, rsi, 30.0, "monotonically falling prices should read oversold")
}

func TestRSIInvalidPeriod(t *testing.T) {
	_, err := RSI([]float64{1, 2, 3}, 14)
	assert.Error(t, err)

	_, err = RSI([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestBollingerFlatSeries(t *testing.T) {
	flat := make([]float64, 25)
	for i := range flat {
		flat[i] = 100
	}
	bb, err := Bollinger(flat, 20)
	require.NoError(t, err)
	assert.InDelta(t, 100, bb.Middle, 1e-9)
	assert.InDelta(t, 100, bb.Upper, 1e-9, "zero variance collapses the bands onto the mean")
	assert.InDelta(t, 100, bb.Lower, 1e-9)
}

func TestBollingerOrdering(t *testing.T) {
	prices := make([]float64, 40)
	for i := range prices {
		prices[i] = 100 + float64(i%7)
	}
	bb, err := Bollinger(prices, 20)
	require.NoError(t, err)
	assert.Greater(t, bb.Upper, bb.Middle)
	assert.Less(t, bb.Lower, bb.Middle)
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	sma, err := SMA(values, 3)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, sma, 1e-9)
}
