package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the instrument configuration. The defaults bake in the
// constants of the physical logger: receiver board calibration, pressure
// sensor calibration sheet values, oversampling and flash timing.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Identity  string          `yaml:"identity"`
	RClick    RClickConfig    `yaml:"rclick"`
	Pressure  PressureConfig  `yaml:"pressure"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Mock      MockConfig      `yaml:"mock"`
}

// SerialConfig contains serial port configuration. An empty port means the
// command channel runs over stdin/stdout.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// RClickConfig contains the current-loop receiver calibration and the
// oversampling filter parameters.
type RClickConfig struct {
	P1MA               float64       `yaml:"p1_ma"`
	P2MA               float64       `yaml:"p2_ma"`
	P1Bitval           uint16        `yaml:"p1_bitval"`
	P2Bitval           uint16        `yaml:"p2_bitval"`
	OversampleInterval time.Duration `yaml:"oversample_interval"`
	LowPassHz          float64       `yaml:"low_pass_hz"`
}

// PressureConfig contains the pressure sensor calibration sheet parameters.
type PressureConfig struct {
	ZeroMA       float64 `yaml:"zero_ma"`
	SpanMA       float64 `yaml:"span_ma"`
	FullRangeBar float64 `yaml:"full_range_bar"`
}

// IndicatorConfig contains the status LED parameters.
type IndicatorConfig struct {
	FlashDuration time.Duration `yaml:"flash_duration"`
	Dim           uint8         `yaml:"dim"`    // Brightness for the idle state [0-255]
	Bright        uint8         `yaml:"bright"` // Brightness for setup and flash [0-255]
}

// MockConfig contains the simulated pressure transducer configuration.
type MockConfig struct {
	MeanMA      float64       `yaml:"mean_ma"`      // Mean loop current (mA)
	AmplitudeMA float64       `yaml:"amplitude_ma"` // Slow oscillation amplitude (mA)
	Period      time.Duration `yaml:"period"`       // Oscillation period
	NoiseMA     float64       `yaml:"noise_ma"`     // Pseudo-noise amplitude (mA)
}

// Default returns a default configuration with the values of the physical
// instrument.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "", // stdin/stdout
			BaudRate: 9600,
		},
		Identity: "Arduino, Diffusive Bubble Growth logger",
		RClick: RClickConfig{
			// Calibrated against a multimeter.
			P1MA:               3.99,
			P2MA:               20.15,
			P1Bitval:           796,
			P2Bitval:           4020,
			OversampleInterval: 5 * time.Millisecond,
			LowPassHz:          1.0,
		},
		Pressure: PressureConfig{
			// Calibration sheet supplied with the sensor, serial 1037812.
			ZeroMA:       4.01,
			SpanMA:       15.99,
			FullRangeBar: 10.0,
		},
		Indicator: IndicatorConfig{
			FlashDuration: 100 * time.Millisecond,
			Dim:           2,
			Bright:        6,
		},
		Mock: MockConfig{
			MeanMA:      12.0,
			AmplitudeMA: 4.0,
			Period:      30 * time.Second,
			NoiseMA:     0.05,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Ensure minimum required fields are set (use defaults if missing)
	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if
// missing. A zero pressure span in particular would break the calibration
// transform, so it is backfilled here.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Identity == "" {
		c.Identity = def.Identity
	}

	if c.RClick.P1MA == 0 && c.RClick.P2MA == 0 {
		c.RClick.P1MA = def.RClick.P1MA
		c.RClick.P2MA = def.RClick.P2MA
	}
	if c.RClick.P1Bitval == 0 && c.RClick.P2Bitval == 0 {
		c.RClick.P1Bitval = def.RClick.P1Bitval
		c.RClick.P2Bitval = def.RClick.P2Bitval
	}
	if c.RClick.OversampleInterval == 0 {
		c.RClick.OversampleInterval = def.RClick.OversampleInterval
	}
	if c.RClick.LowPassHz == 0 {
		c.RClick.LowPassHz = def.RClick.LowPassHz
	}

	if c.Pressure.SpanMA == 0 {
		c.Pressure.ZeroMA = def.Pressure.ZeroMA
		c.Pressure.SpanMA = def.Pressure.SpanMA
	}
	if c.Pressure.FullRangeBar == 0 {
		c.Pressure.FullRangeBar = def.Pressure.FullRangeBar
	}

	if c.Indicator.FlashDuration == 0 {
		c.Indicator.FlashDuration = def.Indicator.FlashDuration
	}
	if c.Indicator.Dim == 0 {
		c.Indicator.Dim = def.Indicator.Dim
	}
	if c.Indicator.Bright == 0 {
		c.Indicator.Bright = def.Indicator.Bright
	}

	if c.Mock.MeanMA == 0 {
		c.Mock.MeanMA = def.Mock.MeanMA
	}
	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
}
