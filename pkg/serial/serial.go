// Package serial provides the serial port link to the machine controller.
// The port is opened in raw 8N1 mode and carries G-code command lines in
// and report/acknowledge lines out.
package serial

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Common errors
var (
	ErrTimeout = errors.New("serial: operation timed out")
	ErrClosed  = errors.New("serial: port closed")
)

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., /dev/ttyUSB0, /dev/ttyACM0)
	Device string

	// Baud rate (default: 250000)
	BaudRate int

	// Read timeout for individual operations (default: 5 seconds)
	ReadTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BaudRate:    250000,
		ReadTimeout: 5 * time.Second,
	}
}

// Port represents a serial port connection.
type Port struct {
	mu         sync.Mutex
	fd         int
	device     string
	config     Config
	closed     bool
	oldTermios *unix.Termios
}

// Open opens a serial port with the given configuration.
func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial: device path required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 250000
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}

	oldTermios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: get termios: %w", err)
	}

	termios := *oldTermios

	// Input flags - disable all input processing
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY

	// Output flags - disable all output processing
	termios.Oflag &^= unix.OPOST

	// Control flags - 8N1
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	// Local flags - raw mode
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN

	speed, err := baudRateToSpeed(cfg.BaudRate)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	setSpeed(&termios, speed)

	termios.Cc[unix.VMIN] = 0  // Non-blocking read
	termios.Cc[unix.VTIME] = 1 // 100ms timeout per character

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &termios); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: set termios: %w", err)
	}

	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: set blocking: %w", err)
	}

	return &Port{
		fd:         fd,
		device:     cfg.Device,
		config:     cfg,
		oldTermios: oldTermios,
	}, nil
}

// Device returns the device path this port was opened on.
func (p *Port) Device() string {
	return p.device
}

// Read reads up to len(buf) bytes from the port.
func (p *Port) Read(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	fd := p.fd
	timeout := p.config.ReadTimeout
	p.mu.Unlock()

	pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, int(timeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil // Interrupted, try again
		}
		return 0, fmt.Errorf("serial: poll: %w", err)
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	if pfd[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return 0, io.EOF
	}

	n, err = unix.Read(fd, buf)
	if err != nil {
		return 0, fmt.Errorf("serial: read: %w", err)
	}
	return n, nil
}

// Write writes buf to the port.
func (p *Port) Write(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	fd := p.fd
	p.mu.Unlock()

	n, err := unix.Write(fd, buf)
	if err != nil {
		return 0, fmt.Errorf("serial: write: %w", err)
	}
	return n, nil
}

// Close restores the original termios settings and closes the port.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.oldTermios != nil {
		unix.IoctlSetTermios(p.fd, ioctlSetTermios, p.oldTermios)
	}
	return unix.Close(p.fd)
}

// baudRateToSpeed maps a numeric baud rate to the termios speed constant.
func baudRateToSpeed(baud int) (uint32, error) {
	speeds := map[int]uint32{
		1200:   unix.B1200,
		2400:   unix.B2400,
		4800:   unix.B4800,
		9600:   unix.B9600,
		19200:  unix.B19200,
		38400:  unix.B38400,
		57600:  unix.B57600,
		115200: unix.B115200,
		230400: unix.B230400,
	}
	if runtime.GOOS == "linux" {
		speeds[250000] = 0x1003 // B250000, the firmware default
		speeds[460800] = 0x1004 // B460800
		speeds[500000] = 0x1005 // B500000
		speeds[921600] = 0x1007 // B921600
	}
	if speed, ok := speeds[baud]; ok {
		return speed, nil
	}
	return 0, fmt.Errorf("serial: unsupported baud rate %d", baud)
}
