/*
DESCRIPTION
  format.go defines the recorded file format shared by RawSink (writer) and
  RawPlayer (reader): a fixed header followed by framed per-frame records,
  per spec section 6.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package recorder implements RawSink, the append-only framed writer for
// raw stereo frames, and the shared recorded-file wire format used by
// RawPlayer to read recordings back.
package recorder

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Magic identifies a recorded stereo disparity file.
const Magic uint32 = 0x53444953 // "SIDS" little-endian-ish tag.

// CameraModel enumerates the camera-model tag carried in the file header.
type CameraModel uint8

// Valid CameraModel values.
const (
	ModelVM      CameraModel = 0
	ModelXC      CameraModel = 1
	Model4K      CameraModel = 2 // 2 and above are 4K variants.
	ModelUnknown CameraModel = 99
)

// GrabMode enumerates the sensor readout/processing mode.
type GrabMode uint8

// Valid GrabMode values.
const (
	GrabParallax       GrabMode = 1
	GrabCorrected      GrabMode = 2
	GrabBeforeCorrected GrabMode = 3
	GrabBayer          GrabMode = 4
	GrabBayer2         GrabMode = 5
)

// HeaderSize is the fixed, little-endian, on-disk size of Header.
const HeaderSize = 4 + 1 + 1 + 1 + 1 + 4 + 4 + 8 + 8 + 8 + 8

// Header is the fixed-size file header written once at the start of a
// recording.
type Header struct {
	Model      CameraModel
	GrabMode   GrabMode
	ColorMode  uint8 // 0 or 1.
	ShutterMode uint8 // 0..3, mirrors device.ShutterMode.
	MaxWidth   uint32
	MaxHeight  uint32

	// Stereo calibration constants used to map disparity to metric depth.
	DInf       float64
	BF         float64
	BaseLength float64
	DZ         float64
}

// WriteHeader writes h to w in the on-disk format.
func WriteHeader(w io.Writer, h Header) error {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	buf[4] = byte(h.Model)
	buf[5] = byte(h.GrabMode)
	buf[6] = h.ColorMode
	buf[7] = h.ShutterMode
	binary.LittleEndian.PutUint32(buf[8:12], h.MaxWidth)
	binary.LittleEndian.PutUint32(buf[12:16], h.MaxHeight)
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(h.DInf))
	binary.LittleEndian.PutUint64(buf[24:32], math.Float64bits(h.BF))
	binary.LittleEndian.PutUint64(buf[32:40], math.Float64bits(h.BaseLength))
	binary.LittleEndian.PutUint64(buf[40:48], math.Float64bits(h.DZ))
	_, err := w.Write(buf)
	return err
}

// ReadHeader reads and validates a Header from r.
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, fmt.Errorf("recorder: could not read header: %w", err)
	}
	if got := binary.LittleEndian.Uint32(buf[0:4]); got != Magic {
		return Header{}, fmt.Errorf("recorder: bad magic: got %#x, want %#x", got, Magic)
	}
	h := Header{
		Model:       CameraModel(buf[4]),
		GrabMode:    GrabMode(buf[5]),
		ColorMode:   buf[6],
		ShutterMode: buf[7],
		MaxWidth:    binary.LittleEndian.Uint32(buf[8:12]),
		MaxHeight:   binary.LittleEndian.Uint32(buf[12:16]),
		DInf:        math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24])),
		BF:          math.Float64frombits(binary.LittleEndian.Uint64(buf[24:32])),
		BaseLength:  math.Float64frombits(binary.LittleEndian.Uint64(buf[32:40])),
		DZ:          math.Float64frombits(binary.LittleEndian.Uint64(buf[40:48])),
	}
	return h, nil
}

// RecordType distinguishes a mono frame record from a color frame record.
type RecordType uint8

// Valid RecordType values.
const (
	RecordMono  RecordType = 1
	RecordColor RecordType = 2
)

// frameHeaderSize is the fixed, on-disk size of a FrameHeader.
const frameHeaderSize = 8 + 1 + 4 + 4 + 4 + 4

// FrameHeader precedes each frame's raw bytes in the recorded file.
type FrameHeader struct {
	Index     uint64
	Type      RecordType
	Gain      int32
	Exposure  int32
	ErrorCode int32
	DataSize  uint32
}

// WriteFrameHeader writes fh to w.
func WriteFrameHeader(w io.Writer, fh FrameHeader) error {
	buf := make([]byte, frameHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], fh.Index)
	buf[8] = byte(fh.Type)
	binary.LittleEndian.PutUint32(buf[9:13], uint32(fh.Gain))
	binary.LittleEndian.PutUint32(buf[13:17], uint32(fh.Exposure))
	binary.LittleEndian.PutUint32(buf[17:21], uint32(fh.ErrorCode))
	binary.LittleEndian.PutUint32(buf[21:25], fh.DataSize)
	_, err := w.Write(buf)
	return err
}

// ReadFrameHeader reads a FrameHeader from r.
func ReadFrameHeader(r io.Reader) (FrameHeader, error) {
	buf := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return FrameHeader{}, err // May be io.EOF; caller checks for that.
	}
	return FrameHeader{
		Index:     binary.LittleEndian.Uint64(buf[0:8]),
		Type:      RecordType(buf[8]),
		Gain:      int32(binary.LittleEndian.Uint32(buf[9:13])),
		Exposure:  int32(binary.LittleEndian.Uint32(buf[13:17])),
		ErrorCode: int32(binary.LittleEndian.Uint32(buf[17:21])),
		DataSize:  binary.LittleEndian.Uint32(buf[21:25]),
	}, nil
}
