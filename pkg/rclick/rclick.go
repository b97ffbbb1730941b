// Package rclick models the 4-20 mA R click current-loop receiver board.
//
// Single receiver readings fluctuate a lot, so the board is oversampled and
// low-pass filtered with an exponential moving average (EMA). The proxy is
// polled from the instrument loop; reports then pick up the latest settled
// estimate instead of a fresh noisy sample.
package rclick

import (
	"time"

	"github.com/chewxy/math32"
)

const (
	// DefaultInterval is the nominal oversampling interval.
	DefaultInterval = 5 * time.Millisecond
	// DefaultLowPassHz is the nominal low-pass filter cut-off frequency.
	DefaultLowPassHz = 1.0
)

// ADC reads the raw bit value from the receiver's analog-to-digital
// converter (12-bit, 0-4095).
type ADC interface {
	ReadBitval() uint16
}

// ADCFunc adapts a plain function to the ADC interface.
type ADCFunc func() uint16

// ReadBitval implements ADC.
func (f ADCFunc) ReadBitval() uint16 { return f() }

var _ ADC = ADCFunc(nil)

// Calibration holds the two-point bit value to loop current calibration of
// the receiver board, obtained against a multimeter.
type Calibration struct {
	P1MA     float32 // Loop current at the first calibration point [mA]
	P2MA     float32 // Loop current at the second calibration point [mA]
	P1Bitval uint16  // Bit value at the first calibration point
	P2Bitval uint16  // Bit value at the second calibration point
}

// MAFromBitval maps a (possibly fractional, EMA-filtered) bit value to loop
// current in mA. NaN propagates.
func (c Calibration) MAFromBitval(bitval float32) float32 {
	return c.P1MA + (bitval-float32(c.P1Bitval))*
		(c.P2MA-c.P1MA)/float32(c.P2Bitval-c.P1Bitval)
}

// BitvalFromMA is the inverse mapping, used by the simulated transducer.
func (c Calibration) BitvalFromMA(mA float32) float32 {
	return float32(c.P1Bitval) + (mA-c.P1MA)*
		float32(c.P2Bitval-c.P1Bitval)/(c.P2MA-c.P1MA)
}

// RClick is the acquisition proxy in front of an ADC. Poll must be called at
// least as often as the oversampling interval, otherwise the filter estimate
// goes stale. All state is owned by the polling loop; no locking.
type RClick struct {
	adc      ADC
	calib    Calibration
	interval uint32  // Oversampling interval [us]
	lowpass  float32 // Low-pass cut-off [Hz]

	armed bool
	tick  uint32  // Clock value of the last acquisition [us, wrapping]
	ema   float32 // Filtered bit value, NaN until the first acquisition
}

// New creates an acquisition proxy. Zero interval or cut-off fall back to
// the nominal board values.
func New(adc ADC, calib Calibration, interval time.Duration, lowpassHz float32) *RClick {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if lowpassHz <= 0 {
		lowpassHz = DefaultLowPassHz
	}

	return &RClick{
		adc:      adc,
		calib:    calib,
		interval: uint32(interval.Microseconds()),
		lowpass:  lowpassHz,
		ema:      math32.NaN(),
	}
}

// Poll advances the oversampling state machine. now is the wrapping
// microsecond clock of the current loop iteration. The first call arms the
// sampler; after that a new reading is taken once the oversampling interval
// has elapsed. Elapsed time is computed with unsigned subtraction so clock
// wraparound is harmless.
func (r *RClick) Poll(now uint32) {
	if !r.armed {
		r.armed = true
		r.tick = now
		return
	}

	dt := now - r.tick
	if dt < r.interval {
		return
	}
	r.tick = now

	bitval := float32(r.adc.ReadBitval())
	if math32.IsNaN(r.ema) {
		// First acquisition seeds the filter directly.
		r.ema = bitval
		return
	}

	// Smoothing factor from the actually obtained interval, so a late poll
	// does not slow the filter down.
	alpha := 1 - math32.Exp(-float32(dt)*1e-6*r.lowpass*2*math32.Pi)
	r.ema += alpha * (bitval - r.ema)
}

// Bitval returns the filtered bit value, NaN before the first acquisition.
func (r *RClick) Bitval() float32 {
	return r.ema
}

// CurrentMA returns the filtered loop current in mA, NaN before the first
// acquisition.
func (r *RClick) CurrentMA() float32 {
	return r.calib.MAFromBitval(r.ema)
}
