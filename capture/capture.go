/*
DESCRIPTION
  capture.go implements CaptureEngine, the single dedicated worker that
  pulls frames from a device.RawSource, optionally tees them to a
  recorder.Sink, optionally feeds a self-calibration module, and publishes
  them into a ring.RingBuffer in source order. Its start/stop lifecycle and
  cooperative cancellation follow a dedicated worker goroutine driven by
  a done channel and a WaitGroup.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package capture implements CaptureEngine, the producer side of the
// capture pipeline, and a double-shutter HDR frame merger.
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/recorder"
	"github.com/ausocean/disparity/ring"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "capture: "

// SelfCalibrator is fed each captured frame so that it may accumulate
// statistics and drive auto-calibration, without calling back into camera
// register state itself (see device.RegisterIo).
type SelfCalibrator interface {
	Feed(f *frame.Frame)
}

// Config configures a CaptureEngine.
type Config struct {
	Source       device.RawSource
	Ring         *ring.RingBuffer[*frame.Frame]
	Sink         *recorder.Sink // nil disables recording.
	Calibrator   SelfCalibrator // nil disables self-calibration.
	Mode         device.ShutterMode
	Color        bool
	ReadWaitMs   int
}

// Engine owns the single capture worker goroutine.
type Engine struct {
	log logging.Logger
	cfg Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastErr error
}

// New returns a new Engine.
func New(l logging.Logger, cfg Config) *Engine {
	return &Engine{log: l, cfg: cfg}
}

// Start opens and starts the source, tees recording if configured, and
// launches the single capture worker.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("%sengine already running", pkg)
	}

	if err := e.cfg.Source.Open(); err != nil {
		return fmt.Errorf("%scould not open source: %w", pkg, err)
	}
	if err := e.cfg.Source.Start(e.cfg.Mode, e.cfg.Color); err != nil {
		return fmt.Errorf("%scould not start source: %w", pkg, err)
	}
	if e.cfg.Sink != nil {
		if err := e.cfg.Sink.Start(); err != nil {
			return fmt.Errorf("%scould not start sink: %w", pkg, err)
		}
	}

	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.running = true
	go e.run()
	e.log.Info(pkg + "capture engine started")
	return nil
}

// run is the single capture worker: wait-free loop of
// put_begin -> source.read -> sink.append -> calibrator.feed -> put_commit,
// observing stop within one read wait.
func (e *Engine) run() {
	defer close(e.doneCh)
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		idx := e.cfg.Ring.PutBegin()
		f, err := e.cfg.Source.Read(e.cfg.ReadWaitMs)
		if err != nil {
			switch err.(type) {
			case device.NoImage:
				e.cfg.Ring.PutCommit(idx, nil, time.Time{}, false)
				continue
			case device.Calibrating:
				e.cfg.Ring.PutCommit(idx, nil, time.Time{}, false)
				continue
			default:
				e.mu.Lock()
				e.lastErr = err
				e.mu.Unlock()
				e.log.Error(pkg+"read failed", "error", err.Error())
				e.cfg.Ring.PutCommit(idx, nil, time.Time{}, false)
				continue
			}
		}

		if e.cfg.Sink != nil {
			e.cfg.Sink.Append(f, e.cfg.Color)
		}
		if e.cfg.Calibrator != nil {
			e.cfg.Calibrator.Feed(f)
		}

		e.cfg.Ring.PutCommit(idx, f, f.Ts, true)
	}
}

// Stop signals the capture worker to exit, waits for it to finish, then
// stops the sink and source.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	<-e.doneCh

	var errs device.MultiError
	if e.cfg.Sink != nil {
		if err := e.cfg.Sink.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.cfg.Source.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := e.cfg.Source.Close(); err != nil {
		errs = append(errs, err)
	}
	e.log.Info(pkg + "capture engine stopped")
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LastError returns the most recent non-fatal read error observed by the
// worker, or nil.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
