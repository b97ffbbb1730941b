// Package logger is the instrument core: a single-threaded cooperative loop
// that keeps the acquisition filter fed, answers serial commands, and drives
// the status indicator. Every operation in the loop is non-blocking and
// nothing in it can fail; a missing reading surfaces as NaN in the report,
// never as an error.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/goplog/pkg/config"
	"github.com/itohio/goplog/pkg/indicator"
	"github.com/itohio/goplog/pkg/pressure"
)

// Recognized commands. Matching is case-exact; anything else is silently
// dropped.
const (
	CmdIdentity = "id?"
	CmdReport   = "?"
)

// Clock returns a wrapping microsecond timestamp. Elapsed times are always
// computed with unsigned subtraction, never by comparing absolute values,
// so the wrap every ~71.6 minutes is harmless.
type Clock func() uint32

// SystemClock returns a Clock backed by the monotonic system clock,
// truncated to 32 bits like an MCU tick counter.
func SystemClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Microseconds())
	}
}

// Acquirer is the signal acquisition proxy consumed by the loop. Poll must
// be cheap and non-blocking; the latest estimates are NaN until the filter
// has produced its first valid output.
type Acquirer interface {
	Poll(now uint32)
	Bitval() float32
	CurrentMA() float32
}

// CommandSource delivers at most one completed command line per poll,
// without blocking.
type CommandSource interface {
	Poll() (string, bool)
}

// Reading is the last reported measurement. All fields stay NaN until a
// report command snapshots the acquisition proxy; only the loop mutates it.
type Reading struct {
	Bitval    float32 // Filtered receiver bit value
	CurrentMA float32 // Filtered loop current [mA]
	Bar       float32 // Calibrated pressure [bar]
}

// Logger owns all mutable instrument state and composes the collaborators.
// It is not safe for concurrent use: exactly one goroutine runs the loop.
type Logger struct {
	clock    Clock
	acq      Acquirer
	cmds     CommandSource
	ind      *indicator.Indicator
	out      io.Writer
	calib    pressure.Calibration
	identity string

	reading Reading
}

// New creates the instrument loop. A nil clock selects SystemClock.
func New(cfg *config.Config, clock Clock, acq Acquirer, cmds CommandSource, ind *indicator.Indicator, out io.Writer) *Logger {
	if cfg == nil {
		cfg = config.Default()
	}
	if clock == nil {
		clock = SystemClock()
	}

	return &Logger{
		clock: clock,
		acq:   acq,
		cmds:  cmds,
		ind:   ind,
		out:   out,
		calib: pressure.Calibration{
			ZeroMA:       float32(cfg.Pressure.ZeroMA),
			SpanMA:       float32(cfg.Pressure.SpanMA),
			FullRangeBar: float32(cfg.Pressure.FullRangeBar),
		},
		identity: cfg.Identity,
		reading: Reading{
			Bitval:    math32.NaN(),
			CurrentMA: math32.NaN(),
			Bar:       math32.NaN(),
		},
	}
}

// Step runs one loop iteration: poll acquisition, poll and dispatch at most
// one command, advance the flash timer. The timestamp is captured once and
// reused for every comparison in the iteration. Acquisition is polled before
// command dispatch, so a report always sees the freshest filtered estimate.
func (l *Logger) Step() {
	now := l.clock()

	l.acq.Poll(now)

	if cmd, ok := l.cmds.Poll(); ok {
		// Any completed command line flashes the indicator, recognized or
		// not: the flash signals channel activity, not command success.
		l.ind.Flash(now)

		switch cmd {
		case CmdIdentity:
			l.emit(l.identity + "\n")

		case CmdReport:
			l.reading.Bitval = l.acq.Bitval()
			l.reading.CurrentMA = l.acq.CurrentMA()
			l.reading.Bar = l.calib.BarFromMA(l.reading.CurrentMA)

			l.emit(fmt.Sprintf("%.0f\t%.2f\t%.3f\n",
				l.reading.Bitval, l.reading.CurrentMA, l.reading.Bar))
		}
	}

	l.ind.Tick(now)
}

// Run shows the startup sequence on the indicator and then steps the loop
// until ctx is cancelled. The loop has no other exit path; the instrument
// runs for its powered lifetime.
func (l *Logger) Run(ctx context.Context) error {
	l.ind.Startup()
	l.ind.Ready()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		l.Step()

		// Keep the iteration latency far below both the oversampling
		// interval and the flash duration without spinning a core.
		time.Sleep(100 * time.Microsecond)
	}
}

// emit writes a response line. The protocol has no error path; a broken
// output stream is only worth a log line.
func (l *Logger) emit(s string) {
	if _, err := io.WriteString(l.out, s); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
