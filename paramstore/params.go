/*
DESCRIPTION
  params.go defines the typed parameter records used by the block matcher,
  averager and completer stages, per the data model's MatchingParameters,
  BackMatchingParameters, AveragingParameters, CompletionParameters and
  DisparityLimit.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package paramstore provides typed, validated parameter records for the
// disparity pipeline's stages, with double-buffered updates applied at
// frame boundaries, and optional persistence to an INI-style file.
package paramstore

// MatchingParameters configures the SSD block-matching search.
type MatchingParameters struct {
	ImgH, ImgW     int
	Depth          int // Search width, in pixels.
	BlkH, BlkW     int // Output block grid cell size.
	MtcH, MtcW     int // SSD comparison window size.
	BlkOfsX, BlkOfsY int
	CrstThr        int32 // Contrast threshold, below which a block is invalid.
}

// BackMatchingParameters configures bidirectional consistency checking.
type BackMatchingParameters struct {
	Enabled       bool
	EvalWidth     int // One-sided window width, in blocks, used for blending.
	EvalRange     int32 // Max |fwd - bwd| (in q10 units) for a pair to count as consistent.
	ValidRatioPct int   // Min consistent-pair percentage to keep forward disparity.
	ZeroRatioPct  int   // Min zero-pair percentage to force invalid.
}

// AveragingWeights holds the neighbor weighting scheme used by the Averager.
type AveragingWeights struct {
	Center int
	Near   int // 4-connected neighbor weight.
	Round  int // Diagonal neighbor weight.
}

// AveragingParameters configures the histogram-voting majority filter.
type AveragingParameters struct {
	Enabled bool

	WinH, WinW int // One-sided window radius, in blocks.

	IntegRangeQ10 int32 // Histogram spread radius per sample, in q10 units.
	LimitRangeQ10 int32 // Mode expansion radius, in q10 units.

	DispRatioPct    int
	ValidRatioPct   int
	ReplaceRatioPct int

	Weights AveragingWeights
}

// PixelRatios holds the completer's boundary taper ratios.
type PixelRatios struct {
	Inside int
	Round  int
	Bottom int
}

// CompletionParameters configures the four-direction hole interpolation and
// hole-fill passes.
type CompletionParameters struct {
	Enabled bool

	LowLimitPx   int32
	SlopeLimit   float64
	PixelRatios  PixelRatios
	ContrastLim  int32
	HoleFill     bool
	HoleSizePx   int32
}

// DisparityLimit optionally invalidates (zeroes) decoded disparity outside
// [LowerQ10, UpperQ10]. It is applied by the decoder only.
type DisparityLimit struct {
	Enabled bool
	LowerQ10, UpperQ10 int32
}

// DefaultMatching returns a reasonable starting MatchingParameters for a
// 4x4 block size over a 32-pixel search depth.
func DefaultMatching() MatchingParameters {
	return MatchingParameters{
		BlkH: 4, BlkW: 4,
		MtcH: 4, MtcW: 4,
		Depth: 32,
	}
}

// DefaultBackMatching returns a disabled BackMatchingParameters with
// reasonable defaults should it be enabled.
func DefaultBackMatching() BackMatchingParameters {
	return BackMatchingParameters{
		EvalWidth:     1,
		EvalRange:     2 * SubPixelScale,
		ValidRatioPct: 60,
		ZeroRatioPct:  50,
	}
}

// DefaultAveraging returns a disabled AveragingParameters with reasonable
// defaults should it be enabled.
func DefaultAveraging() AveragingParameters {
	return AveragingParameters{
		WinH: 1, WinW: 1,
		IntegRangeQ10: SubPixelScale / 2,
		LimitRangeQ10: SubPixelScale,
		DispRatioPct:  30,
		ValidRatioPct: 50,
		ReplaceRatioPct: 50,
		Weights: AveragingWeights{Center: 4, Near: 2, Round: 1},
	}
}

// DefaultCompletion returns a disabled CompletionParameters with reasonable
// defaults should it be enabled.
func DefaultCompletion() CompletionParameters {
	return CompletionParameters{
		LowLimitPx:  5,
		SlopeLimit:  0.1,
		PixelRatios: PixelRatios{Inside: 100, Round: 75, Bottom: 50},
		ContrastLim: 1 << 20,
		HoleSizePx:  8,
	}
}

// SubPixelScale is re-exported from block for convenience of callers that
// only import paramstore.
const SubPixelScale = 1000
