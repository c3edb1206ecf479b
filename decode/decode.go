/*
DESCRIPTION
  decode.go unpacks a 2W x H interleaved frame into a rectified reference
  image and, for disparity-mode sources, a per-pixel float disparity map
  plus a per-block disparity grid, per the proprietary 4x4-block
  disparity+mask wire format.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decode implements the Decoder: it unpacks an FPGA-encoded
// interleaved frame into a reference image plus per-pixel and per-block
// disparity.
package decode

import (
	"github.com/pkg/errors"

	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/paramstore"
)

// encBlockSize is the fixed FPGA disparity-block tile size: the wire format
// is defined only in terms of 4x4 pixel blocks.
const encBlockSize = 4

// maxIntegerDisparity is the largest integer disparity the FPGA format can
// express; values above this are invalid.
const maxIntegerDisparity = 95

// fractionalStep is the value of one fractional-disparity unit (1/16 px).
const fractionalStep = 1.0 / 16.0

// brightnessFloor is the minimum L_max below which contrast is forced to
// zero, per the block-matcher's contrast rule (also used here to score the
// reference image for the decoded grid).
const brightnessFloor = 20

// Mode distinguishes the two interleaved-frame semantics the Decoder
// understands.
type Mode uint8

// Valid Mode values.
const (
	// ModeImage treats both interleaved halves as plain grayscale images
	// (Corrected / BeforeCorrected grab modes): zero-based columns
	// 0, 2, 4, ... are the reference image, columns 1, 3, 5, ... the compare
	// image.
	ModeImage Mode = iota

	// ModeDisparity treats the compare half as a packed 4x4-block
	// disparity+mask plane emitted by the FPGA.
	ModeDisparity
)

// ErrShortPlane is returned when the interleaved plane's dimensions are not
// exactly 2W x H for the declared W and H.
var ErrShortPlane = errors.New("decode: interleaved plane too short")

// Result holds the output of one Decode call.
type Result struct {
	Reference frame.Image
	Disparity *block.DisparityImage // Nil when mode == ModeImage.
	Grid      *block.Grid           // Nil when mode == ModeImage.
}

// Params configures a Decode call.
type Params struct {
	Mode    Mode
	Matching paramstore.MatchingParameters
	Limit   paramstore.DisparityLimit
	CrstOfs int32 // Model-specific contrast offset, as used by the block matcher.
}

// Decode unpacks interleaved (2W x H) into a Result according to p. W and H
// are taken from p.Matching.ImgW / ImgH.
func Decode(interleaved frame.Image, p Params) (Result, error) {
	w, h := p.Matching.ImgW, p.Matching.ImgH
	if interleaved.W != 2*w || interleaved.H != h {
		return Result{}, errors.Wrapf(ErrShortPlane, "got %dx%d, want %dx%d", interleaved.W, interleaved.H, 2*w, h)
	}

	ref := frame.NewImage(w, h)
	compare := frame.NewImage(w, h)
	for y := 0; y < h; y++ {
		row := interleaved.Row(y)
		for x := 0; x < w; x++ {
			ref.Set(x, y, row[2*x])
			compare.Set(x, y, row[2*x+1])
		}
	}

	if p.Mode == ModeImage {
		return Result{Reference: ref}, nil
	}

	disp, grid, err := decodeDisparity(ref, compare, p)
	if err != nil {
		return Result{}, errors.Wrap(err, "decode: could not unpack disparity plane")
	}
	return Result{Reference: ref, Disparity: disp, Grid: grid}, nil
}

// decodeDisparity interprets compare as the packed 4x4-block disparity+mask
// format and produces the per-pixel disparity map and per-block grid.
func decodeDisparity(ref, compare frame.Image, p Params) (*block.DisparityImage, *block.Grid, error) {
	w, h := ref.W, ref.H
	disp := block.NewDisparityImage(w, h)
	grid := block.NewGrid(w, h, p.Matching.BlkH, p.Matching.BlkW, p.Matching.BlkOfsX, p.Matching.BlkOfsY)

	blocksY := h / encBlockSize
	blocksX := w / encBlockSize
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			x0, y0 := bx*encBlockSize, by*encBlockSize
			row0 := compare.Row(y0)
			byte0 := row0[x0]
			byte1 := row0[x0+1]
			byte2 := row0[x0+2]
			byte3 := row0[x0+3]

			dispValue, valid := decodeBlockDisparity(byte0, byte1)
			mask := uint16(byte2) | uint16(byte3)<<8

			for py := 0; py < encBlockSize; py++ {
				for px := 0; px < encBlockSize; px++ {
					bit := py*encBlockSize + px
					x, y := x0+px, y0+py
					if valid && mask&(1<<uint(bit)) != 0 {
						disp.Set(x, y, dispValue, block.VisValue(dispValue, p.Matching.Depth))
					} else {
						disp.Set(x, y, 0, 0)
					}
				}
			}

			gj, gi := blockGridIndex(by, bx, p)
			if gj < 0 {
				continue
			}
			cell := gridCellFrom(ref, x0, y0, dispValue, valid, p)
			grid.Set(gj, gi, cell)
		}
	}
	return disp, grid, nil
}

// decodeBlockDisparity unpacks the integer+fractional disparity carried in
// byte0/byte1, reporting validity per the "disparity > 95 is invalid" rule.
func decodeBlockDisparity(byte0, byte1 byte) (value float64, valid bool) {
	integer := int(byte0)
	if integer > maxIntegerDisparity {
		return 0, false
	}
	fractional := float64(byte1>>4) * fractionalStep
	return float64(integer) + fractional, true
}

// blockGridIndex maps an encoder block coordinate to a grid cell, honoring
// the grid's own block size and offset; if those differ from the fixed
// encBlockSize the encoder tile does not align to any single grid cell and
// is skipped.
func blockGridIndex(by, bx int, p Params) (int, int) {
	if p.Matching.BlkH != encBlockSize || p.Matching.BlkW != encBlockSize {
		return -1, -1
	}
	return by, bx
}

// gridCellFrom computes the grid cell for an encoder block: contrast is
// computed from the reference image per the block matcher's rule; disparity
// is zeroed if invalid, below the contrast threshold, or (when DisparityLimit
// is enabled) outside [LowerQ10, UpperQ10].
func gridCellFrom(ref frame.Image, x0, y0 int, dispValue float64, valid bool, p Params) block.Cell {
	contrast := contrastOf(ref, x0, y0, p.CrstOfs)

	dispQ10 := int32(0)
	if valid && contrast >= p.Matching.CrstThr {
		dispQ10 = int32(dispValue*block.SubPixelScale + 0.5)
	}

	if p.Limit.Enabled && dispQ10 != 0 {
		if dispQ10 < p.Limit.LowerQ10 || dispQ10 > p.Limit.UpperQ10 {
			dispQ10 = 0
		}
	}

	return block.Cell{DispQ10: dispQ10, Contrast: contrast}
}

// contrastOf computes the block matcher's weighted Michelson-style contrast
// for the encBlockSize x encBlockSize block of img anchored at (x0, y0).
func contrastOf(img frame.Image, x0, y0 int, crstOfs int32) int32 {
	var lMax, lMin byte = 0, 255
	var lSum int32
	n := int32(encBlockSize * encBlockSize)
	for y := y0; y < y0+encBlockSize; y++ {
		for x := x0; x < x0+encBlockSize; x++ {
			v := img.At(x, y)
			if v > lMax {
				lMax = v
			}
			if v < lMin {
				lMin = v
			}
			lSum += int32(v)
		}
	}
	if lMax < brightnessFloor {
		return 0
	}
	if lSum == 0 {
		return 0
	}
	return (int32(lMax-lMin)*1000 - crstOfs) * n / lSum
}
