package rclick

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/goplog/pkg/config"
)

// MockADC simulates the pressure transducer behind the receiver board for
// development without hardware. It produces a slow pressure oscillation with
// deterministic pseudo-noise, mapped back through the inverse board
// calibration to ADC counts.
type MockADC struct {
	cfg   *config.MockConfig
	calib Calibration
	start time.Time
}

var _ ADC = (*MockADC)(nil)

// NewMockADC creates a simulated transducer.
func NewMockADC(cfg *config.MockConfig, calib Calibration) *MockADC {
	if cfg == nil {
		cfg = &config.MockConfig{
			MeanMA:      12.0,
			AmplitudeMA: 4.0,
			Period:      30 * time.Second,
			NoiseMA:     0.05,
		}
	}

	return &MockADC{
		cfg:   cfg,
		calib: calib,
		start: time.Now(),
	}
}

// ReadBitval implements ADC.
func (m *MockADC) ReadBitval() uint16 {
	t := float32(time.Since(m.start).Seconds())

	mA := float32(m.cfg.MeanMA)
	if m.cfg.Period > 0 {
		mA += float32(m.cfg.AmplitudeMA) *
			math32.Sin(2*math32.Pi*t/float32(m.cfg.Period.Seconds()))
	}
	// Deterministic pseudo-noise, no rand needed for a dev waveform
	mA += (math32.Sin(t*997) + math32.Cos(t*1301)) * float32(m.cfg.NoiseMA) * 0.5

	bitval := m.calib.BitvalFromMA(mA)
	if bitval < 0 {
		bitval = 0
	} else if bitval > 4095 {
		bitval = 4095
	}
	return uint16(bitval + 0.5)
}
