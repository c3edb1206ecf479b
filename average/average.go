/*
DESCRIPTION
  average.go implements the Averager: a windowed histogram-voting majority
  filter over the disparity grid, banded across a persistent worker pool
  shared with the block matcher.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package average implements the Averager, the windowed histogram-voting
// majority filter applied to a decoded or matched disparity grid.
package average

import (
	"github.com/ausocean/disparity/band"
	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/paramstore"
)

// histBuckets is the fixed number of histogram buckets, per the documented
// compatibility constant.
const histBuckets = 1024

// Averager runs the histogram-voting majority filter over a persistent
// band pool.
type Averager struct {
	pool *band.Pool
}

// NewAverager returns an Averager that fans its work out across pool.
func NewAverager(pool *band.Pool) *Averager {
	return &Averager{pool: pool}
}

// Average produces a new grid from in, per the windowed majority-vote rule.
// Margin cells within win_h/win_w of the grid boundary are copied through
// unchanged, since no full window is available there.
func (a *Averager) Average(in *block.Grid, ap paramstore.AveragingParameters, depth int) *block.Grid {
	out := block.NewGrid(in.Width*in.BlockW, in.Height*in.BlockH, in.BlockH, in.BlockW, in.OffsetX, in.OffsetY)
	copy(out.Cells, in.Cells)

	a.pool.Run(in.Height, func(jStart, jEnd int) {
		averageBand(in, out, ap, depth, jStart, jEnd)
	})
	return out
}

// averageBand runs the majority filter for grid rows [jStart, jEnd).
func averageBand(in, out *block.Grid, ap paramstore.AveragingParameters, depth, jStart, jEnd int) {
	bucketWidth := (depth*block.SubPixelScale + histBuckets - 1) / histBuckets

	for j := jStart; j < jEnd; j++ {
		if j < ap.WinH || j >= in.Height-ap.WinH {
			continue
		}
		for i := 0; i < in.Width; i++ {
			if i < ap.WinW || i >= in.Width-ap.WinW {
				continue
			}
			out.Set(j, i, averageCell(in, ap, depth, bucketWidth, j, i))
		}
	}
}

// averageCell computes the majority-filtered cell at (j, i).
func averageCell(in *block.Grid, ap paramstore.AveragingParameters, depth, bucketWidth, j, i int) block.Cell {
	centerContrast := in.At(j, i).Contrast

	var wTot, wDsp int64
	type sample struct {
		disp   int32
		weight int64
	}
	samples := make([]sample, 0, (2*ap.WinH+1)*(2*ap.WinW+1))

	for dj := -ap.WinH; dj <= ap.WinH; dj++ {
		for di := -ap.WinW; di <= ap.WinW; di++ {
			w := neighborWeight(dj, di, ap)
			wTot += w
			c := in.At(j+dj, i+di)
			if c.Valid() {
				wDsp += w
				samples = append(samples, sample{disp: c.DispQ10, weight: w})
			}
		}
	}

	if wTot == 0 || wDsp*100/wTot < int64(ap.DispRatioPct) {
		return block.Cell{Contrast: centerContrast}
	}

	hist := make([]int64, histBuckets)
	maxDisp := int32(depth * block.SubPixelScale)
	integRange := ap.IntegRangeQ10
	for _, s := range samples {
		lo := s.disp - integRange
		hi := s.disp + integRange
		if lo < 0 {
			lo = 0
		}
		if hi >= maxDisp {
			hi = maxDisp - 1
		}
		bLo := int(lo) / bucketWidth
		bHi := int(hi) / bucketWidth
		for b := bLo; b <= bHi && b < histBuckets; b++ {
			hist[b] += s.weight
		}
	}

	mode := modeOfHistogram(hist)
	modeDisp := int32(mode*bucketWidth) + int32(bucketWidth/2)
	lo := modeDisp - ap.LimitRangeQ10
	hi := modeDisp + ap.LimitRangeQ10
	if lo < 0 {
		lo = 0
	}
	if hi >= maxDisp {
		hi = maxDisp - 1
	}

	var wSum, wDispSum int64
	for _, s := range samples {
		if s.disp < lo || s.disp > hi {
			continue
		}
		wSum += s.weight
		wDispSum += int64(s.disp) * s.weight
	}

	center := in.At(j, i)
	if (center.DispQ10 < lo || center.DispQ10 > hi) && wSum*100/wTot < int64(ap.ReplaceRatioPct) {
		return block.Cell{Contrast: centerContrast}
	}
	if wDsp == 0 || wSum*100/wDsp < int64(ap.ValidRatioPct) {
		return block.Cell{Contrast: centerContrast}
	}

	mean := int32(float64(wDispSum)/float64(wSum) + 0.5)
	return block.Cell{DispQ10: mean, Contrast: centerContrast}
}

// neighborWeight returns the position-dependent weight for an offset
// (dj, di) from the block center: Center for the center, Near for its four
// edge neighbors, Round for its four diagonal neighbors, and 1 elsewhere.
func neighborWeight(dj, di int, ap paramstore.AveragingParameters) int64 {
	switch {
	case dj == 0 && di == 0:
		return int64(ap.Weights.Center)
	case absInt(dj)+absInt(di) == 1:
		return int64(ap.Weights.Near)
	case absInt(dj) == 1 && absInt(di) == 1:
		return int64(ap.Weights.Round)
	default:
		return 1
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// modeOfHistogram returns the highest-count bucket, breaking ties by
// taking the midpoint of the longest contiguous run of equally-maximal
// buckets. The max count can occur in more than one disjoint run whenever
// the averaging window straddles two disparity clusters; picking across
// the whole histogram instead of within one run would land the result in
// an arbitrary low-count valley between them.
func modeOfHistogram(hist []int64) int {
	var best int64 = -1
	for _, v := range hist {
		if v > best {
			best = v
		}
	}

	bestRunStart, bestRunLen := 0, 0
	runStart, runLen := -1, 0
	for b, v := range hist {
		if v == best {
			if runStart == -1 {
				runStart = b
			}
			runLen++
			if runLen > bestRunLen {
				bestRunStart, bestRunLen = runStart, runLen
			}
		} else {
			runStart, runLen = -1, 0
		}
	}
	return bestRunStart + (bestRunLen-1)/2
}
