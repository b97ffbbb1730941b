// Command plog runs the pressure logger on a host: the exact serial command
// protocol of the instrument, backed by a simulated transducer. The command
// channel is either a real serial port or stdin/stdout. On the physical
// instrument the same loop runs against the SPI receiver board through the
// rclick.ADC interface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/goplog/pkg/command"
	"github.com/itohio/goplog/pkg/config"
	"github.com/itohio/goplog/pkg/indicator"
	"github.com/itohio/goplog/pkg/logger"
	"github.com/itohio/goplog/pkg/port"
	"github.com/itohio/goplog/pkg/rclick"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0); empty uses stdin/stdout")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		listFlag   = flag.Bool("list", false, "List available serial ports and exit")
	)
	flag.Parse()

	if *listFlag {
		ports, err := port.List()
		if err != nil {
			log.Fatalf("Failed to list serial ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p.Description)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	calib := rclick.Calibration{
		P1MA:     float32(cfg.RClick.P1MA),
		P2MA:     float32(cfg.RClick.P2MA),
		P1Bitval: cfg.RClick.P1Bitval,
		P2Bitval: cfg.RClick.P2Bitval,
	}
	adc := rclick.NewMockADC(&cfg.Mock, calib)
	acq := rclick.New(adc, calib, cfg.RClick.OversampleInterval, float32(cfg.RClick.LowPassHz))

	var (
		bytes <-chan byte
		out   io.Writer
	)
	if cfg.Serial.Port != "" {
		p := port.New(cfg.Serial.Port, cfg.Serial.BaudRate, 0)
		if err := p.Connect(); err != nil {
			log.Fatalf("Failed to connect to %s: %v", cfg.Serial.Port, err)
		}
		defer p.Close()
		bytes = p.Bytes()
		out = p
		log.Printf("Serving on serial port %s @ %d baud", cfg.Serial.Port, cfg.Serial.BaudRate)
	} else {
		bytes = command.Listen(ctx, os.Stdin)
		out = os.Stdout
		log.Printf("Serving on stdin/stdout")
	}

	tok := command.NewTokenizer(bytes, 0)
	ind := indicator.New(&indicator.LogDriver{}, cfg.Indicator.FlashDuration,
		indicator.GreenPalette(cfg.Indicator.Dim, cfg.Indicator.Bright))

	l := logger.New(cfg, nil, acq, tok, ind, out)
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Logger stopped: %v", err)
	}
}
