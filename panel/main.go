// Command panel is a host-side front panel for the pressure logger, the
// counterpart of the Qt logger that ships with the physical setup: it polls
// the instrument with the report command once a second, shows the readings,
// and mirrors the status LED. The instrument core runs embedded with a
// simulated transducer, talking through the same command protocol.
package main

import (
	"context"
	"flag"
	"image/color"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goplog/pkg/config"
	"github.com/itohio/goplog/pkg/indicator"
	"github.com/itohio/goplog/pkg/logger"
	"github.com/itohio/goplog/pkg/rclick"
)

const pollInterval = time.Second // Same cadence as the Qt host logger

func main() {
	configFlag := flag.String("config", "config.yaml", "Configuration file path")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application := app.NewWithID("com.itohio.goplog")
	window := application.NewWindow("Diffusive Bubble Growth logger")
	window.Resize(fyne.NewSize(420, 260))
	window.CenterOnScreen()

	state := newPanelState(cfg, window)

	window.SetContent(container.NewBorder(
		state.toolbar(),
		state.identityLbl,
		nil,
		nil,
		container.NewVBox(
			container.NewCenter(state.led),
			state.bitvalLbl,
			state.currentLbl,
			state.pressureLbl,
		),
	))

	ctx, cancel := context.WithCancel(context.Background())
	window.SetOnClosed(cancel)

	state.start(ctx)
	window.ShowAndRun()
}

// panelState holds the front panel widgets and the embedded instrument.
type panelState struct {
	cfg    *config.Config
	window fyne.Window

	led         *canvas.Circle
	bitvalLbl   *widget.Label
	currentLbl  *widget.Label
	pressureLbl *widget.Label
	identityLbl *widget.Label

	cmds    chan string
	polling atomic.Bool
}

func newPanelState(cfg *config.Config, window fyne.Window) *panelState {
	s := &panelState{
		cfg:         cfg,
		window:      window,
		led:         canvas.NewCircle(color.NRGBA{A: 0xff}),
		bitvalLbl:   widget.NewLabel("Bit value: -"),
		currentLbl:  widget.NewLabel("Current:   - mA"),
		pressureLbl: widget.NewLabel("Pressure:  - bar"),
		identityLbl: widget.NewLabel(""),
		cmds:        make(chan string, 8),
	}
	s.led.Resize(fyne.NewSize(32, 32))
	s.polling.Store(true)
	return s
}

// toolbar creates the Read and Identify buttons and the auto-poll toggle.
func (s *panelState) toolbar() fyne.CanvasObject {
	readBtn := widget.NewButton("Read", func() {
		s.send(logger.CmdReport)
	})
	idBtn := widget.NewButton("Identify", func() {
		s.send(logger.CmdIdentity)
	})
	pollChk := widget.NewCheck("Poll 1 Hz", func(on bool) {
		s.polling.Store(on)
	})
	pollChk.SetChecked(true)

	return container.NewHBox(readBtn, idBtn, pollChk)
}

// send queues a command for the instrument loop without ever blocking the
// UI thread.
func (s *panelState) send(cmd string) {
	select {
	case s.cmds <- cmd:
	default:
		log.Printf("Command queue full, dropping %q", cmd)
	}
}

// Poll implements logger.CommandSource over the panel's command queue.
func (s *panelState) Poll() (string, bool) {
	select {
	case cmd := <-s.cmds:
		return cmd, true
	default:
		return "", false
	}
}

// Set implements indicator.Driver by mirroring the LED color on the panel.
// The physical brightness levels are scaled up so they stay visible on a
// monitor.
func (s *panelState) Set(c indicator.Color) {
	scaled := color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: 0xff}
	fyne.Do(func() {
		s.led.FillColor = scaled
		canvas.Refresh(s.led)
	})
}

func scale(v uint8) uint8 {
	if v >= 8 {
		return 0xff
	}
	return v * 32
}

// Write implements io.Writer for the instrument's response stream, handling
// each completed line.
func (s *panelState) Write(b []byte) (int, error) {
	for _, line := range strings.Split(string(b), "\n") {
		if line != "" {
			s.handleLine(line)
		}
	}
	return len(b), nil
}

// handleLine routes a response line to the panel widgets: three tab
// separated fields are a reading, anything else is the identity string.
func (s *panelState) handleLine(line string) {
	fields := strings.Split(line, "\t")
	fyne.Do(func() {
		if len(fields) == 3 {
			s.bitvalLbl.SetText("Bit value: " + fields[0])
			s.currentLbl.SetText("Current:   " + fields[1] + " mA")
			s.pressureLbl.SetText("Pressure:  " + fields[2] + " bar")
		} else {
			s.identityLbl.SetText(line)
		}
	})
}

// start wires the embedded instrument and runs it until ctx is cancelled.
func (s *panelState) start(ctx context.Context) {
	calib := rclick.Calibration{
		P1MA:     float32(s.cfg.RClick.P1MA),
		P2MA:     float32(s.cfg.RClick.P2MA),
		P1Bitval: s.cfg.RClick.P1Bitval,
		P2Bitval: s.cfg.RClick.P2Bitval,
	}
	adc := rclick.NewMockADC(&s.cfg.Mock, calib)
	acq := rclick.New(adc, calib, s.cfg.RClick.OversampleInterval, float32(s.cfg.RClick.LowPassHz))
	ind := indicator.New(s, s.cfg.Indicator.FlashDuration,
		indicator.GreenPalette(s.cfg.Indicator.Dim, s.cfg.Indicator.Bright))

	l := logger.New(s.cfg, nil, acq, s, ind, s)

	go func() {
		if err := l.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Logger stopped: %v", err)
		}
	}()

	// Periodic report query, like the Qt host logger's DAQ timer
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.polling.Load() {
					s.send(logger.CmdReport)
				}
			}
		}
	}()
}
