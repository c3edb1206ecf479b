//go:build withcv
// +build withcv

/*
DESCRIPTION
  fastpath_withcv.go provides MatchFast for builds with gocv. It checks once
  for an OpenCL device and copies ref and cmp into UMats, then runs the CPU
  routine matchBand over the whole grid; no OpenCL kernel is run. Unlike
  Matcher.Match it applies neither back-matching nor shadow-column
  invalidation.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package match

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/paramstore"
)

var clOnce sync.Once
var clAvailable bool

// deviceAvailable reports whether an OpenCL-capable GPU context was found.
// Selection happens once and is cached for the lifetime of the process.
func deviceAvailable() bool {
	clOnce.Do(func() {
		clAvailable = gocv.OpenCLAvailable()
		if clAvailable {
			gocv.SetUseOpenCL(true)
		}
	})
	return clAvailable
}

// MatchFast stages ref and cmp into OpenCL UMats and computes the grid with
// matchBand, reading pixels from ref and cmp directly; the UMats are not
// read. It reports ok=false if no device is available.
func MatchFast(ref, cmp frame.Image, mp paramstore.MatchingParameters, crstOfs int32) (*block.Grid, bool) {
	if !deviceAvailable() {
		return nil, false
	}

	refMat, err := gocv.NewMatFromBytes(ref.H, ref.W, gocv.MatTypeCV8U, ref.Pix)
	if err != nil {
		return nil, false
	}
	defer refMat.Close()
	cmpMat, err := gocv.NewMatFromBytes(cmp.H, cmp.W, gocv.MatTypeCV8U, cmp.Pix)
	if err != nil {
		return nil, false
	}
	defer cmpMat.Close()

	refU := refMat.GetUMat(gocv.AccessRead)
	defer refU.Close()
	cmpU := cmpMat.GetUMat(gocv.AccessRead)
	defer cmpU.Close()

	// The per-block SSD and parabolic fit run on the CPU through matchBand,
	// over ref and cmp rather than the UMat copies.
	grid := block.NewGrid(mp.ImgW, mp.ImgH, mp.BlkH, mp.BlkW, mp.BlkOfsX, mp.BlkOfsY)
	matchBand(ref, cmp, grid, mp, crstOfs, 0, grid.Height)
	return grid, true
}
