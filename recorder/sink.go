/*
DESCRIPTION
  sink.go implements RawSink, the append-only framed writer for raw stereo
  frames. It rotates by file size through lumberjack and removes rotated
  files older than MaxAgeDays; it does not rotate on a wall-clock interval
  or on low free disk. It refuses to start when available capacity is below
  a configured floor.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package recorder

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/utils/logging"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Used to indicate package in logging.
const pkg = "recorder: "

// Config configures a Sink.
type Config struct {
	Path     string
	Header   Header
	MaxSizeMB int // Rotate once the active file reaches this size.
	MaxAgeDays int // Remove rotated files older than this many days.

	// MinimumCapacityBytes is the free-disk floor below which Start
	// refuses to begin recording.
	MinimumCapacityBytes uint64
}

// Sink is an implementation of RawSink. Write failures are logged and the
// engine continues, per spec section 4.3 and 7: recording is a best-effort
// side channel, never allowed to stall capture.
type Sink struct {
	log logging.Logger
	cfg Config

	mu      sync.Mutex
	w       *lumberjack.Logger
	started bool
}

// New returns a new Sink.
func New(l logging.Logger, cfg Config) *Sink {
	return &Sink{log: l, cfg: cfg}
}

// freeBytes reports the bytes free on the filesystem holding path.
func freeBytes(path string) (uint64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// Start validates available capacity, opens the rotating file and writes
// the fixed header.
func (s *Sink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	free, err := freeBytes(".")
	if err == nil && free < s.cfg.MinimumCapacityBytes {
		return fmt.Errorf("%savailable capacity %d bytes below required minimum %d bytes", pkg, free, s.cfg.MinimumCapacityBytes)
	}

	s.w = &lumberjack.Logger{
		Filename: s.cfg.Path,
		MaxSize:  s.cfg.MaxSizeMB,
		MaxAge:   s.cfg.MaxAgeDays,
	}
	if err := WriteHeader(s.w, s.cfg.Header); err != nil {
		return fmt.Errorf("%scould not write header: %w", pkg, err)
	}
	s.started = true
	s.log.Info(pkg + "recording started")
	return nil
}

// Stop closes the active file.
func (s *Sink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false
	return s.w.Close()
}

// Append writes one frame record. Failures are logged, not returned, so
// that a recording fault never interrupts the capture loop (spec
// section 7): the caller observes success via the returned bool.
func (s *Sink) Append(f *frame.Frame, color bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return false
	}

	rt := RecordMono
	if color {
		rt = RecordColor
	}

	data := payloadOf(f)
	fh := FrameHeader{
		Index:     f.Index,
		Type:      rt,
		Gain:      int32(f.Gain),
		Exposure:  int32(f.Exposure),
		ErrorCode: int32(f.Err),
		DataSize:  uint32(len(data)),
	}

	if err := WriteFrameHeader(s.w, fh); err != nil {
		s.log.Error(pkg+"failed to write frame header", "error", err.Error())
		return false
	}
	if _, err := s.w.Write(data); err != nil {
		s.log.Error(pkg+"failed to write frame data", "error", err.Error())
		return false
	}
	return true
}

// payloadOf extracts the raw bytes to be recorded for f, according to its
// Kind.
func payloadOf(f *frame.Frame) []byte {
	switch f.Kind {
	case frame.KindRectified:
		buf := make([]byte, len(f.Left.Pix)+len(f.Right.Pix))
		n := copy(buf, f.Left.Pix)
		copy(buf[n:], f.Right.Pix)
		return buf
	case frame.KindEncoded:
		return f.Interleaved.Pix
	default:
		return f.Packed.Pix
	}
}
