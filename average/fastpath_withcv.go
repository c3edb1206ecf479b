//go:build withcv
// +build withcv

/*
DESCRIPTION
  fastpath_withcv.go provides AverageFast for builds with gocv. It checks
  once for an OpenCL device and copies the grid into a UMat, then computes
  the majority filter with the CPU routine averageCell; no OpenCL kernel is
  bundled or run. Without a device it reports unavailable.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package average

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/paramstore"
)

var clOnce sync.Once
var clAvailable bool

func deviceAvailable() bool {
	clOnce.Do(func() {
		clAvailable = gocv.OpenCLAvailable()
		if clAvailable {
			gocv.SetUseOpenCL(true)
		}
	})
	return clAvailable
}

// AverageFast stages the grid into an OpenCL UMat and computes the majority
// filter with averageCell on the CPU; the UMat is not read back. It reports
// ok=false if no device is available.
func AverageFast(in *block.Grid, ap paramstore.AveragingParameters, depth int) (*block.Grid, bool) {
	if !deviceAvailable() {
		return nil, false
	}

	raw := make([]int32, len(in.Cells)*2)
	for i, c := range in.Cells {
		raw[2*i] = c.DispQ10
		raw[2*i+1] = c.Contrast
	}
	mat, err := gocv.NewMatFromBytes(in.Height, in.Width*2, gocv.MatTypeCV32S, int32SliceToBytes(raw))
	if err != nil {
		return nil, false
	}
	defer mat.Close()
	umat := mat.GetUMat(gocv.AccessRead)
	defer umat.Close()

	// The cells are computed by the same CPU routine averageBand uses, so the
	// result equals the CPU path's.
	out := block.NewGrid(in.Width*in.BlockW, in.Height*in.BlockH, in.BlockH, in.BlockW, in.OffsetX, in.OffsetY)
	copy(out.Cells, in.Cells)
	bucketWidth := (depth*block.SubPixelScale + histBuckets - 1) / histBuckets
	for j := ap.WinH; j < in.Height-ap.WinH; j++ {
		for i := ap.WinW; i < in.Width-ap.WinW; i++ {
			out.Set(j, i, averageCell(in, ap, depth, bucketWidth, j, i))
		}
	}
	return out, true
}

func int32SliceToBytes(v []int32) []byte {
	b := make([]byte, len(v)*4)
	for i, x := range v {
		b[4*i] = byte(x)
		b[4*i+1] = byte(x >> 8)
		b[4*i+2] = byte(x >> 16)
		b[4*i+3] = byte(x >> 24)
	}
	return b
}
