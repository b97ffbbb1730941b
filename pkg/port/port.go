// Package port provides the serial transport for the instrument's command
// channel: incoming bytes are forwarded on a channel the tokenizer can poll
// without blocking, and responses are written straight back to the port.
package port

import (
	"fmt"
	"io"
	"log"
	"sync"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

const (
	// DefaultBaudRate matches the instrument's serial console.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default capacity of the incoming byte channel.
	DefaultBufferSize = 256
)

// Info describes an available serial port.
type Info struct {
	Name        string
	Description string
}

// Port is a connection to a serial device. Incoming bytes are read by a
// goroutine and exposed on Bytes(); Write goes directly to the device.
type Port struct {
	name string
	baud int

	conn      serial.Port
	bytes     chan byte
	mu        sync.RWMutex
	connected bool
}

var _ io.Writer = (*Port)(nil)

// New creates a port with the given name and baud rate. Zero values select
// the defaults.
func New(name string, baudRate int, bufSize int) *Port {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Port{
		name:  name,
		baud:  baudRate,
		bytes: make(chan byte, bufSize),
	}
}

// List returns the available serial ports with USB details where known.
func List() ([]Info, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Info, 0, len(ports))
	for _, p := range ports {
		desc := p.Name
		if p.IsUSB {
			desc = fmt.Sprintf("%s (VID:%s PID:%s %s)", p.Name, p.VID, p.PID, p.Product)
		}
		result = append(result, Info{Name: p.Name, Description: desc})
	}

	return result, nil
}

// Connect opens the serial port and starts forwarding incoming bytes.
func (p *Port) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: p.baud,
	}

	conn, err := serial.Open(p.name, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", p.name, err)
	}

	p.conn = conn
	p.connected = true

	go p.readBytes()

	return nil
}

// Close closes the connection and stops the reader.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected {
		return nil
	}

	// Closing the port unblocks the reader goroutine, which then closes the
	// byte channel.
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
	}
	p.connected = false

	return nil
}

// Bytes returns the channel of incoming bytes.
func (p *Port) Bytes() <-chan byte {
	return p.bytes
}

// Write sends response bytes to the device.
func (p *Port) Write(b []byte) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.connected {
		return 0, fmt.Errorf("not connected")
	}

	return p.conn.Write(b)
}

// IsConnected returns whether the port is currently open.
func (p *Port) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// readBytes forwards incoming bytes until the port is closed.
func (p *Port) readBytes() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readBytes: %v", r)
		}
	}()
	defer close(p.bytes)

	buf := make([]byte, 64)
	for {
		n, err := p.conn.Read(buf)
		for _, b := range buf[:n] {
			select {
			case p.bytes <- b:
			default:
				// The loop has stalled; better to drop input than block
				log.Printf("Byte channel full, dropping input")
			}
		}
		if err != nil {
			if err != io.EOF {
				p.mu.RLock()
				connected := p.connected
				p.mu.RUnlock()
				if connected {
					log.Printf("Error reading from serial port: %v", err)
				}
			}
			return
		}
	}
}
