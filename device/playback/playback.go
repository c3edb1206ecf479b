/*
DESCRIPTION
  playback.go implements device.RawSource by replaying a file written by
  recorder.Sink: validates file existence, reads the header, verifies
  camera-model compatibility, and paces reads at interval_ms.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package playback provides device.RawSource implemented as a RawPlayer
// over a file written by recorder.Sink.
package playback

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/recorder"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "playback: "

// ErrModelMismatch is returned by Start when the file's camera-model tag
// does not match the expected model.
var ErrModelMismatch = errors.New("playback: camera model mismatch")

// ErrFileNotFound is returned by Start when the file does not exist.
var ErrFileNotFound = errors.New("playback: file not found")

// Status reports a Player's current playback position.
type Status struct {
	FrameNumber uint64
	Header      recorder.Header
}

// Player is an implementation of device.RawSource that replays a recorded
// file, in place of a live RawSource.
type Player struct {
	log logging.Logger

	path          string
	expectedModel recorder.CameraModel
	intervalMs    int
	color         bool

	mu          sync.Mutex
	f           *os.File
	header      recorder.Header
	frameNumber uint64
	running     bool
}

// New returns a new Player. expectedModel is the camera model the caller
// requires the file to match; pass recorder.ModelUnknown to skip the check.
func New(l logging.Logger, path string, expectedModel recorder.CameraModel, intervalMs int) *Player {
	return &Player{log: l, path: path, expectedModel: expectedModel, intervalMs: intervalMs}
}

// Name returns the name of the device.
func (p *Player) Name() string { return "Player" }

// Open validates that the file exists.
func (p *Player) Open() error {
	if _, err := os.Stat(p.path); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("%scould not stat file: %w", pkg, err)
	}
	return nil
}

// Close is a no-op; Stop releases the open file handle.
func (p *Player) Close() error { return nil }

// Start opens the file, reads its header, and verifies camera-model
// compatibility.
func (p *Player) Start(mode device.ShutterMode, color bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("%scould not open file: %w", pkg, err)
	}

	h, err := recorder.ReadHeader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("%scould not read header: %w", pkg, err)
	}
	if p.expectedModel != recorder.ModelUnknown && h.Model != p.expectedModel {
		f.Close()
		return ErrModelMismatch
	}

	p.f = f
	p.header = h
	p.color = color
	p.frameNumber = 0
	p.running = true
	p.log.Info(pkg + "playback started")
	return nil
}

// Stop closes the file.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	p.running = false
	return p.f.Close()
}

// Read consumes one (mono) or two (color) framed records, paces playback
// by sleeping intervalMs, and returns device.NoImage{} at EOF.
func (p *Player) Read(waitMs int) (*frame.Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil, errors.New(pkg + "not started")
	}

	fh, pix, err := p.readOneRecord()
	if err != nil {
		return nil, err
	}
	if p.color {
		// A color acquisition emits a mono+color pair; consume the second
		// record so that frame numbering advances by one acquisition.
		if _, _, err := p.readOneRecord(); err != nil {
			return nil, err
		}
	}

	if p.intervalMs > 0 {
		time.Sleep(time.Duration(p.intervalMs) * time.Millisecond)
	}

	p.frameNumber++

	f := &frame.Frame{
		W:        int(p.header.MaxWidth),
		H:        int(p.header.MaxHeight),
		Index:    fh.Index,
		Ts:       time.Now(),
		Gain:     int(fh.Gain),
		Exposure: int(fh.Exposure),
		Err:      int(fh.ErrorCode),
		Kind:     frame.KindRaw,
		Packed:   frame.Image{W: 2 * int(p.header.MaxWidth), H: int(p.header.MaxHeight), Pix: pix},
	}
	return f, nil
}

// readOneRecord reads and validates one frame header + payload, returning
// device.NoImage{} at EOF.
func (p *Player) readOneRecord() (recorder.FrameHeader, []byte, error) {
	fh, err := recorder.ReadFrameHeader(p.f)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return recorder.FrameHeader{}, nil, device.NoImage{}
		}
		return recorder.FrameHeader{}, nil, fmt.Errorf("%scould not read frame header: %w", pkg, err)
	}
	data := make([]byte, fh.DataSize)
	if _, err := io.ReadFull(p.f, data); err != nil {
		return recorder.FrameHeader{}, nil, fmt.Errorf("%scould not read frame data: %w", pkg, err)
	}
	return fh, data, nil
}

// Seek repositions playback to the given frame number by rereading from the
// start of the frame records and skipping forward.
func (p *Player) Seek(frameNumber uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return errors.New(pkg + "not started")
	}
	if _, err := p.f.Seek(int64(recorder.HeaderSize), io.SeekStart); err != nil {
		return fmt.Errorf("%scould not seek to start of records: %w", pkg, err)
	}
	p.frameNumber = 0
	for p.frameNumber < frameNumber {
		if _, _, err := p.readOneRecord(); err != nil {
			return err
		}
		p.frameNumber++
	}
	return nil
}

// SeekStatus returns the current playback position and file header.
func (p *Player) SeekStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{FrameNumber: p.frameNumber, Header: p.header}
}

// GetOption and SetOption are stubs: a Player has no live control plane.
func (p *Player) GetOption(name string) (device.ParameterValue, error) {
	return device.ParameterValue{}, fmt.Errorf("%splayer has no options", pkg)
}

func (p *Player) SetOption(name string, v device.ParameterValue) error {
	return fmt.Errorf("%splayer has no options", pkg)
}

// IsRunning reports whether the player has been started.
func (p *Player) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
