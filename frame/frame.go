/*
DESCRIPTION
  frame.go defines Frame, the unit of data that flows from a RawSource
  through the capture and disparity pipeline, and Image, a minimal packed
  byte-plane type used throughout in place of a general imaging library.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame defines the Frame and Image types shared across the capture,
// decode, block-matching and completion stages of the disparity engine.
package frame

import (
	"fmt"
	"time"
)

// Kind identifies which variant of payload a Frame carries.
type Kind uint8

// Frame payload kinds, per the data model's Frame variants.
const (
	// KindRectified carries a separate left and right grayscale image,
	// ready for block matching.
	KindRectified Kind = iota

	// KindEncoded carries an FPGA-computed disparity+mask plane,
	// interleaved alongside the reference image, ready for decode.
	KindEncoded

	// KindRaw carries a packed 2W x H plane for replay through the decoder.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindRectified:
		return "Rectified"
	case KindEncoded:
		return "Encoded"
	case KindRaw:
		return "Raw"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Image is a single-channel 8-bit byte plane, row-major, with no padding
// between rows. It is allocated once by its owner and reused in place; it
// carries no ownership semantics of its own.
type Image struct {
	W, H int
	Pix  []byte
}

// NewImage allocates an Image of the given dimensions with a zeroed plane.
func NewImage(w, h int) Image {
	return Image{W: w, H: h, Pix: make([]byte, w*h)}
}

// At returns the pixel value at (x, y). It panics if the coordinate is out
// of bounds, consistent with the hot-path, no-allocation design of the
// matching and averaging stages which never pass invalid coordinates.
func (im Image) At(x, y int) byte { return im.Pix[y*im.W+x] }

// Set writes the pixel value at (x, y).
func (im Image) Set(x, y int, v byte) { im.Pix[y*im.W+x] = v }

// Row returns the backing slice for row y, suitable for slicing further by
// column without a copy.
func (im Image) Row(y int) []byte { return im.Pix[y*im.W : (y+1)*im.W] }

// Frame is one acquisition instant: a stereo pair, an FPGA-encoded plane, or
// a raw packed plane, along with capture metadata. A Frame is produced once
// by a RawSource and is treated as immutable while borrowed by downstream
// consumers via the ring buffer's get-handle.
type Frame struct {
	W, H int

	// Index is a monotonically increasing frame sequence number assigned by
	// the producing RawSource.
	Index uint64

	// Ts is the capture timestamp, as reported by the source.
	Ts time.Time

	Gain     int
	Exposure int

	// Err carries a per-sensor error code for this acquisition; zero means
	// no error. A non-zero Err frame is still enqueued so that callers can
	// observe it; the pipeline does not check Err and processes such a
	// frame like any other.
	Err int

	Kind Kind

	// Left, Right hold the rectified pair when Kind == KindRectified.
	Left, Right Image

	// Interleaved holds the 2W x H FPGA plane when Kind == KindEncoded.
	Interleaved Image

	// Packed holds the 2W x H raw plane when Kind == KindRaw.
	Packed Image
}

// Reset clears metadata fields in place, leaving the Image backing arrays
// allocated so that the Frame can be reused.
func (f *Frame) Reset() {
	f.Index = 0
	f.Ts = time.Time{}
	f.Gain = 0
	f.Exposure = 0
	f.Err = 0
}
