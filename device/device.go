/*
DESCRIPTION
  device.go provides RawSource, an interface describing a configurable
  stereo camera or FPGA disparity source from which timestamped raw frames
  can be obtained, and the tagged-sum ParameterValue used to get/set its
  options.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for raw stereo
// frame sources that can be started, stopped, and configured via a
// polymorphic option interface.
package device

import (
	"fmt"
	"time"

	"github.com/ausocean/disparity/frame"
)

// ShutterMode enumerates the camera's shutter behaviour.
type ShutterMode uint8

// Valid ShutterMode values.
const (
	ShutterManual ShutterMode = iota
	ShutterSingle
	ShutterDouble
	ShutterDouble2
)

// AutoCalibMode enumerates self-calibration states settable via option.
type AutoCalibMode uint8

// Valid AutoCalibMode values.
const (
	AutoCalibOff AutoCalibMode = iota
	AutoCalibRunning
	AutoCalibManualStart
)

// Option names recognised by Get/SetOption.
const (
	OptShutterMode      = "ShutterMode"
	OptExposure         = "Exposure"
	OptGain             = "Gain"
	OptHDR              = "HDR"
	OptHR               = "HR"
	OptAutoCalib        = "AutoCalib"
	OptOcclusionRemoval = "OcclusionRemoval"
	OptPeculiarRemoval  = "PeculiarRemoval"
	OptRegister         = "Register"
)

// ValueKind tags which field of a ParameterValue is populated.
type ValueKind uint8

// Valid ValueKind values.
const (
	KindInt ValueKind = iota
	KindFloat
	KindBool
	KindString
	KindU64
	KindShutterMode
)

// ParameterValue is a tagged sum standing in for the overloaded per-type
// get/set option calls of the source implementation; exactly one field is
// meaningful, selected by Kind.
type ParameterValue struct {
	Kind    ValueKind
	Int     int
	Float   float64
	Bool    bool
	String  string
	U64     uint64
	Shutter ShutterMode
}

// IntValue constructs an int-kind ParameterValue.
func IntValue(v int) ParameterValue { return ParameterValue{Kind: KindInt, Int: v} }

// FloatValue constructs a float-kind ParameterValue.
func FloatValue(v float64) ParameterValue { return ParameterValue{Kind: KindFloat, Float: v} }

// BoolValue constructs a bool-kind ParameterValue.
func BoolValue(v bool) ParameterValue { return ParameterValue{Kind: KindBool, Bool: v} }

// StringValue constructs a string-kind ParameterValue.
func StringValue(v string) ParameterValue { return ParameterValue{Kind: KindString, String: v} }

// U64Value constructs a u64-kind ParameterValue, used for generic register
// blobs packed into a 64-bit word.
func U64Value(v uint64) ParameterValue { return ParameterValue{Kind: KindU64, U64: v} }

// ShutterValue constructs a ShutterMode-kind ParameterValue.
func ShutterValue(v ShutterMode) ParameterValue {
	return ParameterValue{Kind: KindShutterMode, Shutter: v}
}

// RawSource describes a configurable stereo camera or FPGA disparity
// source. Reads are ordered; Start must be called before any Read, and
// options may be set while running.
type RawSource interface {
	// Name returns the name of the source.
	Name() string

	// Open prepares the source (e.g. opens a device file or socket) without
	// starting acquisition.
	Open() error

	// Close releases resources acquired by Open.
	Close() error

	// Start begins acquisition in the given shutter mode and color mode.
	Start(mode ShutterMode, color bool) error

	// Stop ends acquisition. After Stop, Read returns an error.
	Stop() error

	// Read blocks up to waitMs for the next frame. It returns NoImage on a
	// timeout with nothing available, Calibrating while the source is
	// under auto-calibration, or a wrapped I/O error on failure.
	Read(waitMs int) (*frame.Frame, error)

	// GetOption reads the named option's current value.
	GetOption(name string) (ParameterValue, error)

	// SetOption writes the named option's value. Options may be set while
	// the source is running.
	SetOption(name string, v ParameterValue) error
}

// RegisterIo abstracts direct register-level access to a camera's control
// plane, used by self-calibration and by the OcclusionRemoval/
// PeculiarRemoval options. It is passed by reference rather than via a
// pointer-to-callable global, so that self-calibration never calls back
// into package-level state.
type RegisterIo interface {
	// ReadRegister writes wbuf (an opaque request blob) and reads the
	// response into rbuf, returning the number of bytes read.
	ReadRegister(wbuf, rbuf []byte) (int, error)

	// WriteRegister writes wbuf (an opaque request+payload blob).
	WriteRegister(wbuf []byte) error
}

// MultiError collects multiple field-validation errors: used when a Set
// call encounters several bad-or-unset fields and defaults each rather
// than failing outright.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Calibrating reports that a read arrived while the source is under
// self-calibration.
type Calibrating struct{ Since time.Duration }

func (c Calibrating) Error() string { return "device: source is calibrating" }

// NoImage reports that no frame was available within the requested wait.
type NoImage struct{}

func (NoImage) Error() string { return "device: no image" }
