/*
DESCRIPTION
  match.go implements BlockMatcher: SSD-based integer+sub-pixel disparity
  search with optional bidirectional (back-matching) consistency, banded
  across a persistent worker pool. The CPU path here is authoritative; the
  gocv build's MatchFast is in fastpath_withcv.go.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package match implements the BlockMatcher: SSD block matching with
// sub-pixel refinement and optional back-matching consistency blending.
package match

import (
	"github.com/ausocean/disparity/band"
	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/paramstore"
)

// brightnessFloor is the L_max threshold below which a block's contrast is
// forced to zero.
const brightnessFloor = 20

// shadowWidth returns the number of rightmost block-grid columns that are
// always invalid because no correspondence is possible at the search
// boundary; it equals the search depth in blocks.
func shadowWidth(depth, blkW int) int {
	n := depth / blkW
	if depth%blkW != 0 {
		n++
	}
	return n
}

// Matcher runs SSD block matching over a persistent band pool.
type Matcher struct {
	pool *band.Pool
}

// NewMatcher returns a Matcher that fans its work out across pool. The
// pool's lifetime is owned by the caller (created at engine start,
// destroyed at stop).
func NewMatcher(pool *band.Pool) *Matcher {
	return &Matcher{pool: pool}
}

// Match computes the disparity grid for a rectified reference/compare pair.
// bp, if non-nil and enabled, enables bidirectional consistency blending.
func (m *Matcher) Match(ref, cmp frame.Image, mp paramstore.MatchingParameters, bp *paramstore.BackMatchingParameters, crstOfs int32) *block.Grid {
	grid := block.NewGrid(mp.ImgW, mp.ImgH, mp.BlkH, mp.BlkW, mp.BlkOfsX, mp.BlkOfsY)
	m.pool.Run(grid.Height, func(jStart, jEnd int) {
		matchBand(ref, cmp, grid, mp, crstOfs, jStart, jEnd)
	})

	if bp != nil && bp.Enabled {
		back := block.NewGrid(mp.ImgW, mp.ImgH, mp.BlkH, mp.BlkW, mp.BlkOfsX, mp.BlkOfsY)
		m.pool.Run(back.Height, func(jStart, jEnd int) {
			matchBand(cmp, ref, back, mp, crstOfs, jStart, jEnd)
		})
		blendBackMatch(grid, back, *bp)
	}

	zeroShadow(grid, shadowWidth(mp.Depth, mp.BlkW))
	return grid
}

// matchBand runs SSD matching for grid block rows [jStart, jEnd).
func matchBand(ref, cmp frame.Image, grid *block.Grid, mp paramstore.MatchingParameters, crstOfs int32, jStart, jEnd int) {
	depth := mp.Depth
	ssd := make([]int32, depth)

	for j := jStart; j < jEnd; j++ {
		y0 := mp.BlkOfsY + j*mp.BlkH
		for i := 0; i < grid.Width; i++ {
			x0 := mp.BlkOfsX + i*mp.BlkW

			contrast := contrastOf(ref, x0, y0, mp.MtcW, mp.MtcH, crstOfs)
			if contrast < mp.CrstThr {
				grid.Set(j, i, block.Cell{Contrast: contrast})
				continue
			}

			for d := 0; d < depth; d++ {
				if x0+d+mp.MtcW > cmp.W {
					ssd[d] = 1 << 30 // Out of bounds: treat as unreachable.
					continue
				}
				ssd[d] = ssdOf(ref, cmp, x0, y0, mp.MtcW, mp.MtcH, d)
			}

			dispQ10, ok := subPixelDisparity(ssd, depth)
			if !ok {
				grid.Set(j, i, block.Cell{Contrast: contrast})
				continue
			}
			grid.Set(j, i, block.Cell{DispQ10: dispQ10, Contrast: contrast})
		}
	}
}

// contrastOf computes the weighted Michelson-style contrast over an mtcW x
// mtcH window anchored at (x0, y0) in img.
func contrastOf(img frame.Image, x0, y0, mtcW, mtcH int, crstOfs int32) int32 {
	var lMax, lMin byte = 0, 255
	var lSum int32
	n := int32(mtcW * mtcH)
	for y := y0; y < y0+mtcH; y++ {
		for x := x0; x < x0+mtcW; x++ {
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
	if lMax < brightnessFloor || lSum == 0 {
		return 0
	}
	return (int32(lMax-lMin)*1000 - crstOfs) * n / lSum
}

// ssdOf computes the sum of squared differences between the reference
// block at (x0, y0) and the compare block shifted by d.
func ssdOf(ref, cmp frame.Image, x0, y0, mtcW, mtcH, d int) int32 {
	var sum int32
	for y := y0; y < y0+mtcH; y++ {
		for x := x0; x < x0+mtcW; x++ {
			diff := int32(ref.At(x, y)) - int32(cmp.At(x+d, y))
			sum += diff * diff
		}
	}
	return sum
}

// subPixelDisparity finds d_min, the lowest-SSD candidate, and refines it
// with a parabolic fit over its immediate neighbors, per the sub-pixel
// scenario in the testable properties. It reports ok=false when d_min sits
// on either search boundary (no valid correspondence).
func subPixelDisparity(ssd []int32, depth int) (dispQ10 int32, ok bool) {
	dMin := 0
	for d := 1; d < depth; d++ {
		if ssd[d] < ssd[dMin] {
			dMin = d
		}
	}
	if dMin == 0 || dMin == depth-1 {
		return 0, false
	}

	sMinus, s0, sPlus := float64(ssd[dMin-1]), float64(ssd[dMin]), float64(ssd[dMin+1])
	denom := 2 * (sMinus - 2*s0 + sPlus)
	var delta float64
	if denom > 0 {
		delta = (sMinus - sPlus) / denom
	}
	disp := float64(dMin) + delta
	return int32(disp*float64(block.SubPixelScale) + 0.5), true
}

// blendBackMatch blends fwd with back per the back-matching consistency
// rule, evaluated within a bp.EvalWidth-sided window around each block.
func blendBackMatch(fwd, back *block.Grid, bp paramstore.BackMatchingParameters) {
	out := make([]block.Cell, len(fwd.Cells))
	for j := 0; j < fwd.Height; j++ {
		for i := 0; i < fwd.Width; i++ {
			out[j*fwd.Width+i] = blendCell(fwd, back, j, i, bp)
		}
	}
	copy(fwd.Cells, out)
}

// blendCell evaluates the consistency blend for one block.
func blendCell(fwd, back *block.Grid, j, i int, bp paramstore.BackMatchingParameters) block.Cell {
	c := fwd.At(j, i)

	nTotal, nValid, nZero := 0, 0, 0
	for dj := -bp.EvalWidth; dj <= bp.EvalWidth; dj++ {
		for di := -bp.EvalWidth; di <= bp.EvalWidth; di++ {
			jj, ii := j+dj, i+di
			if !fwd.InBounds(jj, ii) {
				continue
			}
			f := fwd.At(jj, ii).DispQ10
			b := back.At(jj, ii).DispQ10
			nTotal++
			if f == 0 || b == 0 {
				nZero++
				continue
			}
			diff := f - b
			if diff < 0 {
				diff = -diff
			}
			if diff <= bp.EvalRange {
				nValid++
			}
		}
	}
	if nTotal == 0 {
		return block.Cell{Contrast: c.Contrast}
	}
	if nZero*100/nTotal >= bp.ZeroRatioPct {
		return block.Cell{Contrast: c.Contrast}
	}
	if nValid*100/nTotal >= bp.ValidRatioPct {
		return c
	}
	return block.Cell{Contrast: c.Contrast}
}

// zeroShadow invalidates the rightmost shadowCols block columns: no
// correspondence is possible there given the configured search depth.
func zeroShadow(grid *block.Grid, shadowCols int) {
	if shadowCols > grid.Width {
		shadowCols = grid.Width
	}
	for j := 0; j < grid.Height; j++ {
		for i := grid.Width - shadowCols; i < grid.Width; i++ {
			c := grid.At(j, i)
			grid.Set(j, i, block.Cell{Contrast: c.Contrast})
		}
	}
}
