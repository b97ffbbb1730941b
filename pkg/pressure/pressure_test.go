package pressure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBarFromMA(t *testing.T) {
	tests := []struct {
		name  string
		calib Calibration
		mA    float32
		want  float32
	}{
		{
			name:  "zero current gives zero pressure",
			calib: Calibration{ZeroMA: 4.0, SpanMA: 16.0, FullRangeBar: 10.0},
			mA:    4.0,
			want:  0.0,
		},
		{
			name:  "full span gives full range",
			calib: Calibration{ZeroMA: 4.0, SpanMA: 16.0, FullRangeBar: 10.0},
			mA:    20.0,
			want:  10.0,
		},
		{
			name:  "mid span",
			calib: Calibration{ZeroMA: 4.0, SpanMA: 16.0, FullRangeBar: 10.0},
			mA:    12.0,
			want:  5.0,
		},
		{
			name:  "sheet calibration from the sensor",
			calib: Calibration{ZeroMA: 4.01, SpanMA: 15.99, FullRangeBar: 10.0},
			mA:    4.01 + 15.99,
			want:  10.0,
		},
		{
			name:  "below zero current is not clamped",
			calib: Calibration{ZeroMA: 4.0, SpanMA: 16.0, FullRangeBar: 10.0},
			mA:    0.0, // broken loop
			want:  -2.5,
		},
		{
			name:  "above span is not clamped",
			calib: Calibration{ZeroMA: 4.0, SpanMA: 16.0, FullRangeBar: 10.0},
			mA:    24.0,
			want:  12.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.calib.BarFromMA(tt.mA)
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}
}

func TestBarFromMA_Linearity(t *testing.T) {
	calib := Calibration{ZeroMA: 3.98, SpanMA: 16.11, FullRangeBar: 16.0}

	// f(zero + k*span) == k*fullRange for a spread of k
	for _, k := range []float32{-0.5, 0, 0.25, 0.5, 1, 1.5} {
		got := calib.BarFromMA(calib.ZeroMA + k*calib.SpanMA)
		assert.InDelta(t, k*calib.FullRangeBar, got, 1e-3, "k=%v", k)
	}
}

func TestBarFromMA_NaNPropagates(t *testing.T) {
	calib := Calibration{ZeroMA: 4.0, SpanMA: 16.0, FullRangeBar: 10.0}
	got := calib.BarFromMA(float32(math.NaN()))
	assert.True(t, math.IsNaN(float64(got)))
}
