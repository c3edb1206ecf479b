/*
DESCRIPTION
  complete.go implements the Completer: four-direction (horizontal,
  vertical, diagonal-down, diagonal-up) hole interpolation over the
  disparity grid, with slope/contrast gating and an optional hole-fill
  pass for wider gaps.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package complete implements the Completer, the four-direction hole
// interpolation and hole-fill stage applied after averaging.
package complete

import (
	"math"

	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/paramstore"
)

// direction identifies one of the four scan directions over the grid.
type direction int

const (
	dirHorizontal direction = iota
	dirVertical
	dirDiagDown
	dirDiagUp
)

// Completer runs the four-direction scans and optional hole-fill pass.
type Completer struct {
	blkH, blkW    int
	blockDiagonal float64
}

// New returns a Completer for a grid whose blocks are blkH x blkW pixels;
// blockDiagonal is derived once and reused by the hole-fill span test.
func New(blkH, blkW int) *Completer {
	return &Completer{blkH: blkH, blkW: blkW, blockDiagonal: math.Hypot(float64(blkH), float64(blkW))}
}

// stepPixels returns the pixel distance between adjacent grid cells along
// dir: one block width for a horizontal scan, one block height for a
// vertical scan, and the block diagonal for either diagonal scan.
func (c *Completer) stepPixels(dir direction) float64 {
	switch dir {
	case dirHorizontal:
		return float64(c.blkW)
	case dirVertical:
		return float64(c.blkH)
	default:
		return c.blockDiagonal
	}
}

// Complete runs the documented scan order over in and returns a new grid.
// Pass 1 (pre-fill): vertical, horizontal, diag-down, diag-up. If
// cp.HoleFill, pass 2 additionally sweeps horizontal, vertical, diag-down,
// diag-up, horizontal, vertical.
func (c *Completer) Complete(in *block.Grid, cp paramstore.CompletionParameters) *block.Grid {
	out := block.NewGrid(in.Width*in.BlockW, in.Height*in.BlockH, in.BlockH, in.BlockW, in.OffsetX, in.OffsetY)
	copy(out.Cells, in.Cells)

	c.scan(out, dirVertical, cp, false)
	c.scan(out, dirHorizontal, cp, false)
	c.scan(out, dirDiagDown, cp, false)
	c.scan(out, dirDiagUp, cp, false)

	if cp.HoleFill {
		c.scan(out, dirHorizontal, cp, true)
		c.scan(out, dirVertical, cp, true)
		c.scan(out, dirDiagDown, cp, true)
		c.scan(out, dirDiagUp, cp, true)
		c.scan(out, dirHorizontal, cp, true)
		c.scan(out, dirVertical, cp, true)
	}
	return out
}

// line is one row/column/diagonal of (j, i) grid coordinates to walk in
// order for a given direction.
func linesFor(dir direction, h, w int) [][][2]int {
	switch dir {
	case dirHorizontal:
		lines := make([][][2]int, h)
		for j := 0; j < h; j++ {
			line := make([][2]int, w)
			for i := 0; i < w; i++ {
				line[i] = [2]int{j, i}
			}
			lines[j] = line
		}
		return lines
	case dirVertical:
		lines := make([][][2]int, w)
		for i := 0; i < w; i++ {
			line := make([][2]int, h)
			for j := 0; j < h; j++ {
				line[j] = [2]int{j, i}
			}
			lines[i] = line
		}
		return lines
	case dirDiagDown:
		return diagonalLines(h, w, 1)
	default: // dirDiagUp
		return diagonalLines(h, w, -1)
	}
}

// diagonalLines enumerates diagonals of slope `step` (+1 = down-right,
// -1 = down-left) across an h x w grid, each as an ordered (j, i) walk.
func diagonalLines(h, w, step int) [][][2]int {
	var lines [][][2]int
	for start := -(w - 1); start <= h-1; start++ {
		var line [][2]int
		for i := 0; i < w; i++ {
			var j int
			if step == 1 {
				j = start + i
			} else {
				j = start + (w - 1 - i)
			}
			if j < 0 || j >= h {
				continue
			}
			line = append(line, [2]int{j, i})
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// scan walks every line in direction dir, filling invalid runs bounded by
// two valid endpoints per the weighted-interpolation rule. holeFill enables
// the wider-gap hole_size+block_diagonal span check.
func (c *Completer) scan(g *block.Grid, dir direction, cp paramstore.CompletionParameters, holeFill bool) {
	step := c.stepPixels(dir)
	for _, line := range linesFor(dir, g.Height, g.Width) {
		c.fillLine(g, line, step, cp, holeFill)
	}
}

// fillLine applies the forward-walk/backward-fill rule to a single
// ordered line of grid coordinates. step is the pixel distance between
// adjacent cells along this line's direction.
func (c *Completer) fillLine(g *block.Grid, line [][2]int, step float64, cp paramstore.CompletionParameters, holeFill bool) {
	lastValidIdx := -1
	var lastValidDisp int32

	for idx, coord := range line {
		j, i := coord[0], coord[1]
		cell := g.At(j, i)
		if cell.Valid() {
			if lastValidIdx != -1 && idx-lastValidIdx > 1 {
				c.fillRun(g, line, lastValidIdx, idx, lastValidDisp, cell.DispQ10, step, cp, holeFill)
			} else if lastValidIdx == -1 && idx > 0 {
				// Run open at the image border: seed a virtual back-disparity
				// tapered by the boundary ratio.
				c.fillBorderRun(g, line, idx, cell.DispQ10, step, cp, holeFill)
			}
			lastValidIdx = idx
			lastValidDisp = cell.DispQ10
		}
	}
}

// fillRun interpolates the invalid cells strictly between line[fromIdx]
// (disparity fwdDisp) and line[toIdx] (disparity bwdDisp).
func (c *Completer) fillRun(g *block.Grid, line [][2]int, fromIdx, toIdx int, fwdDisp, bwdDisp int32, step float64, cp paramstore.CompletionParameters, holeFill bool) {
	spanPx := float64(toIdx-fromIdx) * step
	fwdPx := float64(fwdDisp) / float64(block.SubPixelScale)
	bwdPx := float64(bwdDisp) / float64(block.SubPixelScale)
	if fwdPx < float64(cp.LowLimitPx) || bwdPx < float64(cp.LowLimitPx) {
		return
	}

	midRatio := float64(cp.PixelRatios.Inside) / 100
	maxSpan := fwdPx*midRatio + bwdPx*midRatio
	if spanPx > maxSpan {
		return
	}

	slope := math.Abs(fwdPx-bwdPx) / spanPx
	if slope >= cp.SlopeLimit {
		return
	}

	if holeFill && spanPx >= float64(cp.HoleSizePx)+c.blockDiagonal {
		return
	}

	for k := fromIdx + 1; k < toIdx; k++ {
		j, i := line[k][0], line[k][1]
		cell := g.At(j, i)
		if !holeFill && cell.Contrast > cp.ContrastLim {
			continue
		}
		wFwd := float64(k - fromIdx)
		wBack := float64(toIdx - k)
		interpolated := (float64(fwdDisp)*wBack + float64(bwdDisp)*wFwd) / (wFwd + wBack)
		g.Set(j, i, block.Cell{DispQ10: int32(interpolated + 0.5), Contrast: cell.Contrast})
	}
}

// fillBorderRun handles a run of invalid cells at the start of a line,
// before any valid cell has been seen: the virtual back-disparity is
// seeded from the first valid cell, tapered by the round/bottom ratios.
func (c *Completer) fillBorderRun(g *block.Grid, line [][2]int, firstValidIdx int, firstValidDisp int32, step float64, cp paramstore.CompletionParameters, holeFill bool) {
	taper := float64(cp.PixelRatios.Round) / 100
	seed := int32(float64(firstValidDisp) * taper)
	firstValidPx := float64(firstValidDisp) / float64(block.SubPixelScale)
	seedPx := float64(seed) / float64(block.SubPixelScale)
	if firstValidPx < float64(cp.LowLimitPx) {
		return
	}

	spanPx := float64(firstValidIdx) * step
	slope := math.Abs(firstValidPx-seedPx) / spanPx
	if slope >= cp.SlopeLimit {
		return
	}
	if holeFill && spanPx >= float64(cp.HoleSizePx)+c.blockDiagonal {
		return
	}

	bottomTaper := float64(cp.PixelRatios.Bottom) / 100
	for k := 0; k < firstValidIdx; k++ {
		j, i := line[k][0], line[k][1]
		cell := g.At(j, i)
		if !holeFill && cell.Contrast > cp.ContrastLim {
			continue
		}
		frac := float64(k) / float64(firstValidIdx)
		interpolated := seed + int32(float64(firstValidDisp-seed)*frac*bottomTaper)
		g.Set(j, i, block.Cell{DispQ10: interpolated, Contrast: cell.Contrast})
	}
}
