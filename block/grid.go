/*
DESCRIPTION
  grid.go defines DisparityBlockGrid, the per-block disparity and contrast
  representation shared by the decoder, block matcher, averager and
  completer, and DisparityImage, its per-pixel expansion.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package block defines the DisparityBlockGrid and DisparityImage types that
// flow between the decoder, block matcher, averager and completer stages.
package block

// SubPixelScale is the fixed-point scale applied to disparity values stored
// in Cell.DispQ10; one unit represents 1/1000th of a pixel.
const SubPixelScale = 1000

// Cell is one block of the disparity grid.
type Cell struct {
	// DispQ10 is the sub-pixel disparity in units of 1/1000 px. Zero means
	// no disparity (invalid).
	DispQ10 int32

	// Contrast is the weighted Michelson-style contrast, scaled by 1000.
	Contrast int32
}

// Valid reports whether the cell carries a usable disparity.
func (c Cell) Valid() bool { return c.DispQ10 > 0 }

// Grid is a Bh x Bw tiling of an image of WxH pixels into a grid of
// height x width cells, row-major. It is allocated once at the pipeline's
// maximum resolution and overwritten in place on every frame.
type Grid struct {
	// Height, Width are the number of block rows and columns.
	Height, Width int

	// BlockH, BlockW are the pixel dimensions of each block.
	BlockH, BlockW int

	// OffsetX, OffsetY anchor the grid's (0,0) cell within the source image.
	OffsetX, OffsetY int

	Cells []Cell
}

// NewGrid allocates a Grid covering an img of size imgW x imgH tiled into
// blkH x blkW cells, anchored at (ofsX, ofsY).
func NewGrid(imgW, imgH, blkH, blkW, ofsX, ofsY int) *Grid {
	h := (imgH - ofsY) / blkH
	w := (imgW - ofsX) / blkW
	return &Grid{
		Height: h, Width: w,
		BlockH: blkH, BlockW: blkW,
		OffsetX: ofsX, OffsetY: ofsY,
		Cells: make([]Cell, h*w),
	}
}

// At returns the cell at block row j, column i.
func (g *Grid) At(j, i int) Cell { return g.Cells[j*g.Width+i] }

// Set writes the cell at block row j, column i.
func (g *Grid) Set(j, i int, c Cell) { g.Cells[j*g.Width+i] = c }

// InBounds reports whether (j, i) is a valid block coordinate.
func (g *Grid) InBounds(j, i int) bool {
	return j >= 0 && j < g.Height && i >= 0 && i < g.Width
}

// ValidCount returns the number of cells with a usable disparity. Used by
// the testable "Completer monotonicity" and "Monotone contrast gating"
// properties.
func (g *Grid) ValidCount() int {
	n := 0
	for _, c := range g.Cells {
		if c.Valid() {
			n++
		}
	}
	return n
}

// DisparityImage is the per-pixel expansion of a Grid: a float disparity
// plane (0 = invalid) plus an 8-bit visualization linearly mapped into
// [0,255].
type DisparityImage struct {
	W, H int
	Disp []float64
	Vis  []byte
}

// NewDisparityImage allocates a DisparityImage of the given dimensions.
func NewDisparityImage(w, h int) *DisparityImage {
	return &DisparityImage{W: w, H: h, Disp: make([]float64, w*h), Vis: make([]byte, w*h)}
}

// At returns the disparity value at (x, y).
func (d *DisparityImage) At(x, y int) float64 { return d.Disp[y*d.W+x] }

// Set writes the disparity and its visualization byte at (x, y).
func (d *DisparityImage) Set(x, y int, disp float64, vis byte) {
	d.Disp[y*d.W+x] = disp
	d.Vis[y*d.W+x] = vis
}

// VisValue maps a disparity to an 8-bit visualization byte, per
// v = round(disparity * 255 / depth), clamped to [0,255].
func VisValue(disparity float64, depth int) byte {
	v := disparity*255/float64(depth) + 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
