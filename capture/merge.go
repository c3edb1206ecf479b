/*
DESCRIPTION
  merge.go implements the double-shutter HDR variant: a long- and a
  short-exposure disparity grid, captured back to back under
  ShutterDouble/ShutterDouble2, are merged cell-by-cell, preferring the
  long-exposure disparity wherever its contrast clears a threshold and
  falling back to the short-exposure disparity elsewhere.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package capture

import (
	"fmt"

	"github.com/ausocean/disparity/block"
)

// DoubleShutterMerger merges a long- and short-exposure disparity grid
// captured from consecutive ShutterDouble/ShutterDouble2 reads.
type DoubleShutterMerger struct {
	// ContrastThreshold is the minimum long-exposure contrast at which the
	// long-exposure disparity is preferred over the short-exposure one.
	ContrastThreshold int32
}

// NewDoubleShutterMerger returns a merger using the given contrast
// threshold.
func NewDoubleShutterMerger(contrastThreshold int32) *DoubleShutterMerger {
	return &DoubleShutterMerger{ContrastThreshold: contrastThreshold}
}

// Merge combines long and short exposure grids of identical geometry, cell
// by cell: the long-exposure cell is kept where its contrast is at least
// ContrastThreshold, otherwise the short-exposure cell is substituted.
func (m *DoubleShutterMerger) Merge(long, short *block.Grid) (*block.Grid, error) {
	if long.Height != short.Height || long.Width != short.Width {
		return nil, fmt.Errorf("capture: grid geometry mismatch: long %dx%d, short %dx%d",
			long.Height, long.Width, short.Height, short.Width)
	}

	out := block.NewGrid(long.Width*long.BlockW, long.Height*long.BlockH, long.BlockH, long.BlockW, long.OffsetX, long.OffsetY)
	for row := 0; row < long.Height; row++ {
		for col := 0; col < long.Width; col++ {
			lc := long.At(row, col)
			if lc.Contrast >= m.ContrastThreshold {
				out.Set(row, col, lc)
				continue
			}
			out.Set(row, col, short.At(row, col))
		}
	}
	return out, nil
}

// Visualize renders the merged grid's disparity to the same 256-gray
// mapping used for the single-shutter visualization (v = round(disp*255/depth)).
func Visualize(g *block.Grid, depth int) []byte {
	vis := make([]byte, g.Height*g.Width)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			c := g.At(row, col)
			var disp float64
			if c.Valid() {
				disp = float64(c.DispQ10) / float64(block.SubPixelScale)
			}
			vis[row*g.Width+col] = block.VisValue(disp, depth)
		}
	}
	return vis
}
