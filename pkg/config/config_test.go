package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, "Arduino, Diffusive Bubble Growth logger", cfg.Identity)
	assert.Equal(t, 3.99, cfg.RClick.P1MA)
	assert.Equal(t, 20.15, cfg.RClick.P2MA)
	assert.Equal(t, uint16(796), cfg.RClick.P1Bitval)
	assert.Equal(t, uint16(4020), cfg.RClick.P2Bitval)
	assert.Equal(t, 5*time.Millisecond, cfg.RClick.OversampleInterval)
	assert.Equal(t, 1.0, cfg.RClick.LowPassHz)
	assert.Equal(t, 4.01, cfg.Pressure.ZeroMA)
	assert.Equal(t, 15.99, cfg.Pressure.SpanMA)
	assert.Equal(t, 10.0, cfg.Pressure.FullRangeBar)
	assert.Equal(t, 100*time.Millisecond, cfg.Indicator.FlashDuration)
	assert.Equal(t, uint8(2), cfg.Indicator.Dim)
	assert.Equal(t, uint8(6), cfg.Indicator.Bright)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 15.99, cfg.Pressure.SpanMA)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 115200

identity: "Test pressure logger"

rclick:
  p1_ma: 4.0
  p2_ma: 20.0
  p1_bitval: 800
  p2_bitval: 4000
  oversample_interval: 10ms
  low_pass_hz: 0.5

pressure:
  zero_ma: 4.0
  span_ma: 16.0
  full_range_bar: 16.0

indicator:
  flash_duration: 250ms
  dim: 4
  bright: 12
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, "Test pressure logger", cfg.Identity)
	assert.Equal(t, 4.0, cfg.RClick.P1MA)
	assert.Equal(t, 20.0, cfg.RClick.P2MA)
	assert.Equal(t, uint16(800), cfg.RClick.P1Bitval)
	assert.Equal(t, uint16(4000), cfg.RClick.P2Bitval)
	assert.Equal(t, 10*time.Millisecond, cfg.RClick.OversampleInterval)
	assert.Equal(t, 0.5, cfg.RClick.LowPassHz)
	assert.Equal(t, 16.0, cfg.Pressure.SpanMA)
	assert.Equal(t, 16.0, cfg.Pressure.FullRangeBar)
	assert.Equal(t, 250*time.Millisecond, cfg.Indicator.FlashDuration)
	assert.Equal(t, uint8(4), cfg.Indicator.Dim)
	assert.Equal(t, uint8(12), cfg.Indicator.Bright)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)                               // default
	assert.Equal(t, "Arduino, Diffusive Bubble Growth logger", cfg.Identity) // default
	assert.Equal(t, 15.99, cfg.Pressure.SpanMA)                              // default
	assert.Equal(t, 100*time.Millisecond, cfg.Indicator.FlashDuration)       // default
}

func TestLoad_ZeroSpanBackfilled(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	// A zero span would make the calibration transform divide by zero
	yamlContent := `
pressure:
  zero_ma: 5.0
  span_ma: 0.0
  full_range_bar: 10.0
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, 15.99, cfg.Pressure.SpanMA)
	assert.NotZero(t, cfg.Pressure.SpanMA)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Pressure.FullRangeBar = 16.0

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 16.0, loaded.Pressure.FullRangeBar)
	assert.Equal(t, cfg.RClick, loaded.RClick)
}
