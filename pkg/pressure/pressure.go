// Package pressure converts calibrated current-loop readings into physical
// pressure. The mapping is the two-point linear calibration printed on the
// sensor's calibration sheet.
package pressure

// Calibration holds the pressure sensor calibration parameters.
// SpanMA must be non-zero; this is enforced when the configuration is
// loaded, not here.
type Calibration struct {
	ZeroMA       float32 // Loop current at zero pressure [mA]
	SpanMA       float32 // Loop current span across the full range [mA]
	FullRangeBar float32 // Pressure at ZeroMA+SpanMA [bar]
}

// BarFromMA maps a loop current to pressure in bar.
// The mapping is deliberately not clamped to the sensor range: out-of-range
// readings (e.g. a broken loop) stay visible downstream. NaN propagates.
func (c Calibration) BarFromMA(mA float32) float32 {
	return (mA - c.ZeroMA) / c.SpanMA * c.FullRangeBar
}
