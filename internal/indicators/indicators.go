// Package indicators wraps the cinar/indicator pipelines behind plain
// slice-in, value-out helpers for the strategy layer.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
)

// sliceToChan feeds a closed buffered channel, the input form the
// cinar pipelines consume.
func sliceToChan(values []float64) chan float64 {
	c := make(chan float64, len(values))
	for _, v := range values {
		c <- v
	}
	close(c)
	return c
}

func drain(c <-chan float64) []float64 {
	var out []float64
	for v := range c {
		out = append(out, v)
	}
	return out
}

// RSI returns the most recent Relative Strength Index value over the
// given period.
func RSI(prices []float64, period int) (float64, error) {
	if period < 1 || period > len(prices) {
		return 0, fmt.Errorf("invalid RSI period: %d (need 1..%d)", period, len(prices))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	values := drain(rsi.Compute(sliceToChan(prices)))
	if len(values) == 0 {
		return 0, fmt.Errorf("no RSI values calculated")
	}
	return values[len(values)-1], nil
}

// BollingerBands holds the most recent band values.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger returns the most recent Bollinger Bands over the given
// period. The band width is fixed at two standard deviations.
func Bollinger(prices []float64, period int) (BollingerBands, error) {
	if period < 2 || period > len(prices) {
		return BollingerBands{}, fmt.Errorf("invalid Bollinger period: %d (need 2..%d)", period, len(prices))
	}

	bb := volatility.NewBollingerBandsWithPeriod[float64](period)
	upperChan, middleChan, lowerChan := bb.Compute(sliceToChan(prices))

	var result BollingerBands
	var got bool
	for {
		u, uok := <-upperChan
		m, mok := <-middleChan
		l, lok := <-lowerChan
		if !uok || !mok || !lok {
			break
		}
		result = BollingerBands{Upper: u, Middle: m, Lower: l}
		got = true
	}
	if !got {
		return BollingerBands{}, fmt.Errorf("no Bollinger Bands values calculated")
	}
	return result, nil
}

// SMA returns the most recent simple moving average over the given
// period.
func SMA(values []float64, period int) (float64, error) {
	if period < 1 || period > len(values) {
		return 0, fmt.Errorf("invalid SMA period: %d (need 1..%d)", period, len(values))
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	out := drain(sma.Compute(sliceToChan(values)))
	if len(out) == 0 {
		return 0, fmt.Errorf("no SMA values calculated")
	}
	return out[len(out)-1], nil
}
