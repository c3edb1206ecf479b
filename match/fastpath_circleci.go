//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  fastpath_circleci.go replaces the OpenCL fast path when built without
  gocv (e.g. CircleCI, which has no OpenCV installed): MatchFast always
  reports unavailable and the caller falls back to the CPU path.

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
	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/paramstore"
)

// MatchFast always reports unavailable in builds without OpenCL support.
func MatchFast(ref, cmp frame.Image, mp paramstore.MatchingParameters, crstOfs int32) (*block.Grid, bool) {
	return nil, false
}
