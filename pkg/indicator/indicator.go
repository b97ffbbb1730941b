// Package indicator drives the instrument status LED: blue while setting up,
// dim green when idle, and a short bright green flash whenever a command
// line arrives on the serial channel.
package indicator

import (
	"log"
	"time"
)

const (
	// DefaultFlashDuration is how long the activity flash stays on.
	DefaultFlashDuration = 100 * time.Millisecond
	// DefaultDim is the idle brightness level [0-255].
	DefaultDim = 2
	// DefaultBright is the setup/flash brightness level [0-255].
	DefaultBright = 6
)

// Color is an RGB color for the indicator pixel.
type Color struct {
	R, G, B uint8
}

// Driver sets the physical indicator to a color. Implementations must not
// block; the loop calls this on every state transition.
type Driver interface {
	Set(Color)
}

// DriverFunc adapts a plain function to the Driver interface.
type DriverFunc func(Color)

// Set implements Driver.
func (f DriverFunc) Set(c Color) { f(c) }

var _ Driver = DriverFunc(nil)

// Palette holds the three colors the indicator cycles through.
type Palette struct {
	Setup Color // Setup in progress
	Idle  Color // Running, waiting for commands
	Flash Color // Command line received
}

// DefaultPalette returns the palette of the physical instrument: bright blue
// setup, dim green idle, bright green flash.
func DefaultPalette() Palette {
	return GreenPalette(DefaultDim, DefaultBright)
}

// GreenPalette builds the standard palette at the given brightness levels.
func GreenPalette(dim, bright uint8) Palette {
	return Palette{
		Setup: Color{B: bright},
		Idle:  Color{G: dim},
		Flash: Color{G: bright},
	}
}

// Indicator is the timed-flash state machine. It is either idle or flashing;
// a flash ends once the flash duration has elapsed. All methods take the
// loop's wrapping microsecond clock value, and elapsed time uses unsigned
// subtraction so wraparound is harmless.
type Indicator struct {
	drv      Driver
	pal      Palette
	flashFor uint32 // [us]

	flashing bool
	tick     uint32 // Clock value when the current flash started [us]
}

// New creates an indicator. A non-positive flash duration selects the
// default.
func New(drv Driver, flashFor time.Duration, pal Palette) *Indicator {
	if flashFor <= 0 {
		flashFor = DefaultFlashDuration
	}

	return &Indicator{
		drv:      drv,
		pal:      pal,
		flashFor: uint32(flashFor.Microseconds()),
	}
}

// Startup shows the setup-in-progress color.
func (i *Indicator) Startup() {
	i.flashing = false
	i.drv.Set(i.pal.Setup)
}

// Ready shows the idle color and cancels any pending flash.
func (i *Indicator) Ready() {
	i.flashing = false
	i.drv.Set(i.pal.Idle)
}

// Flash shows the activity color and (re)starts the flash timer. A flash
// while already flashing restarts the timer, so back-to-back commands keep
// the LED lit without flickering to idle in between.
func (i *Indicator) Flash(now uint32) {
	i.flashing = true
	i.tick = now
	i.drv.Set(i.pal.Flash)
}

// Tick advances the state machine. Once the flash duration has elapsed the
// indicator returns to idle.
func (i *Indicator) Tick(now uint32) {
	if i.flashing && now-i.tick >= i.flashFor {
		i.Ready()
	}
}

// Flashing reports whether the activity flash is currently shown.
func (i *Indicator) Flashing() bool {
	return i.flashing
}

// LogDriver reports color changes through the standard logger. It stands in
// for the pixel when the instrument runs on a host without one.
type LogDriver struct {
	last Color
	seen bool
}

var _ Driver = (*LogDriver)(nil)

// Set implements Driver. Repeated sets of the same color are not logged.
func (d *LogDriver) Set(c Color) {
	if d.seen && c == d.last {
		return
	}
	d.last = c
	d.seen = true
	log.Printf("Indicator: R=%d G=%d B=%d", c.R, c.G, c.B)
}
