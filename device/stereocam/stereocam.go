/*
DESCRIPTION
  stereocam.go provides an implementation of device.RawSource for a USB/FPGA
  stereo camera. Camera vendor transport (USB control, raw framing) is an
  external collaborator; this implementation pipes frames from a vendor
  capture helper process and exposes the camera's control registers
  through GetOption/SetOption.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package stereocam provides a device.RawSource implementation for a USB or
// FPGA-attached stereo camera, piping frames from a vendor capture helper
// process and exposing its control registers as typed options.
package stereocam

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "stereocam: "

// Configuration defaults.
const (
	defaultHelperPath = "/usr/local/bin/stereocam-capture"
	defaultWidth      = 640
	defaultHeight     = 480
)

// Configuration field errors.
var (
	errBadHelperPath = errors.New("helper path bad or unset, defaulting")
	errBadWidth      = errors.New("width bad or unset, defaulting")
	errBadHeight     = errors.New("height bad or unset, defaulting")
)

// Config holds the fields of Camera's configuration relevant to starting
// the capture helper process.
type Config struct {
	// HelperPath is the path to the vendor capture helper binary. It must
	// write one frame header {w, h, index, ts, gain, exposure, err, kind,
	// size} followed by size raw bytes to stdout per acquisition.
	HelperPath string
	Width      int
	Height     int
}

// Camera is an implementation of device.RawSource for a stereo camera. It
// execs a vendor capture helper and pipes raw frames from its stdout,
// piping frames from its stdout.
type Camera struct {
	out io.ReadCloser
	br  *bufio.Reader
	log logging.Logger
	cfg Config
	cmd *exec.Cmd
	reg device.RegisterIo

	mu        sync.Mutex
	options   map[string]device.ParameterValue
	isRunning bool
}

// New returns a new Camera. reg provides register-level access for the
// OcclusionRemoval/PeculiarRemoval/Register options; it may be nil if the
// helper process owns the register plane directly.
func New(l logging.Logger, reg device.RegisterIo) *Camera {
	return &Camera{
		log: l,
		reg: reg,
		options: map[string]device.ParameterValue{
			device.OptShutterMode:      device.ShutterValue(device.ShutterManual),
			device.OptExposure:         device.IntValue(0),
			device.OptGain:             device.IntValue(0),
			device.OptHDR:              device.BoolValue(false),
			device.OptHR:               device.BoolValue(false),
			device.OptAutoCalib:        device.IntValue(int(device.AutoCalibOff)),
			device.OptOcclusionRemoval: device.IntValue(0),
			device.OptPeculiarRemoval:  device.BoolValue(false),
		},
	}
}

// Name returns the name of the device.
func (c *Camera) Name() string { return "StereoCamera" }

// Set validates the given Config and stores it, defaulting bad or unset
// fields and reporting them via a device.MultiError.
func (c *Camera) Set(cfg Config) error {
	var errs device.MultiError
	if cfg.HelperPath == "" {
		errs = append(errs, errBadHelperPath)
		cfg.HelperPath = defaultHelperPath
	}
	if cfg.Width <= 0 {
		errs = append(errs, errBadWidth)
		cfg.Width = defaultWidth
	}
	if cfg.Height <= 0 {
		errs = append(errs, errBadHeight)
		cfg.Height = defaultHeight
	}
	c.cfg = cfg
	if len(errs) != 0 {
		return errs
	}
	return nil
}

// Open is a no-op for Camera; the helper process is started by Start.
func (c *Camera) Open() error { return nil }

// Close is a no-op for Camera; resources are released by Stop.
func (c *Camera) Close() error { return nil }

// Start execs the capture helper, passing the configured shutter mode and
// color mode as arguments, and opens its stdout for reading.
func (c *Camera) Start(mode device.ShutterMode, color bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	args := []string{
		"--width", fmt.Sprint(c.cfg.Width),
		"--height", fmt.Sprint(c.cfg.Height),
		"--shutter", fmt.Sprint(int(mode)),
	}
	if color {
		args = append(args, "--color")
	}

	c.log.Info(pkg+"helper args", "args", args)
	c.cmd = exec.Command(c.cfg.HelperPath, args...)

	var err error
	c.out, err = c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%sfailed to create pipe: %w", pkg, err)
	}
	c.br = bufio.NewReaderSize(c.out, 2*c.cfg.Width*c.cfg.Height)

	c.log.Info(pkg + "starting capture helper")
	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("%sfailed to start capture helper: %w", pkg, err)
	}
	c.isRunning = true
	c.log.Info(pkg + "capture helper started")
	return nil
}

// Stop kills the capture helper process and closes its stdout pipe.
func (c *Camera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isRunning {
		return nil
	}
	c.isRunning = false
	if c.cmd == nil || c.cmd.Process == nil {
		return errors.New(pkg + "helper process was never started")
	}
	if err := c.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("%scould not kill helper process: %w", pkg, err)
	}
	return c.out.Close()
}

// frameHeaderSize is the size, in bytes, of the fixed frame header emitted
// by the capture helper before each frame's raw plane.
const frameHeaderSize = 4 + 4 + 8 + 8 + 4 + 4 + 4 + 1 + 4

// Read blocks up to waitMs for the next frame header and payload from the
// capture helper's stdout, per the RawSource contract.
func (c *Camera) Read(waitMs int) (*frame.Frame, error) {
	c.mu.Lock()
	running := c.isRunning
	br := c.br
	c.mu.Unlock()
	if !running || br == nil {
		return nil, errors.New(pkg + "not streaming")
	}

	type result struct {
		f   *frame.Frame
		err error
	}
	done := make(chan result, 1)
	go func() {
		f, err := readFrame(br)
		done <- result{f, err}
	}()

	select {
	case r := <-done:
		return r.f, r.err
	case <-time.After(time.Duration(waitMs) * time.Millisecond):
		return nil, device.NoImage{}
	}
}

// GetOption reads the named option's current value under the camera's
// mutex.
func (c *Camera) GetOption(name string) (device.ParameterValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.options[name]
	if !ok {
		return device.ParameterValue{}, fmt.Errorf("%sunknown option: %s", pkg, name)
	}
	return v, nil
}

// SetOption writes the named option's value. Register-backed options
// (OcclusionRemoval, PeculiarRemoval, Register) are also pushed to the
// RegisterIo, if one was provided.
func (c *Camera) SetOption(name string, v device.ParameterValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.options[name]; !ok {
		return fmt.Errorf("%sunknown option: %s", pkg, name)
	}
	c.options[name] = v

	if c.reg == nil {
		return nil
	}
	switch name {
	case device.OptOcclusionRemoval:
		return c.reg.WriteRegister([]byte{0x81, byte(v.Int)})
	case device.OptPeculiarRemoval:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return c.reg.WriteRegister([]byte{0x82, b})
	case device.OptRegister:
		buf := make([]byte, 8)
		for i := 0; i < 8; i++ {
			buf[i] = byte(v.U64 >> (8 * i))
		}
		return c.reg.WriteRegister(buf)
	}
	return nil
}

// IsRunning reports whether the capture helper is currently running.
func (c *Camera) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}
