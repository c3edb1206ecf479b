/*
DESCRIPTION
  status.go defines StatusCode, the negative-integer error-code surface
  exposed by the library's C-ABI-shaped API.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package disparity implements Pipeline, the top-level orchestration of
// capture, decode/match, averaging and completion, and exposes the
// library's status-code and query surface.
package disparity

// StatusCode is the negative-integer status surface returned by the
// library's API-level operations; zero means success.
type StatusCode int

// Valid StatusCode values, per the external interfaces section.
const (
	StatusOK               StatusCode = 0
	StatusNoImage          StatusCode = -1
	StatusIoError          StatusCode = -2
	StatusCalibrating      StatusCode = -3
	StatusInvalidParameter StatusCode = -4
	StatusInvalidMode      StatusCode = -5
	StatusOpenFailed       StatusCode = -6
	StatusGrabStartFailed  StatusCode = -7
	StatusGetDepthFailed   StatusCode = -8
	StatusFileNotFound     StatusCode = -9
	StatusReadFailed       StatusCode = -10
	StatusModelMismatch    StatusCode = -11
)

func (s StatusCode) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNoImage:
		return "NoImage"
	case StatusIoError:
		return "IoError"
	case StatusCalibrating:
		return "Calibrating"
	case StatusInvalidParameter:
		return "InvalidParameter"
	case StatusInvalidMode:
		return "InvalidMode"
	case StatusOpenFailed:
		return "OpenFailed"
	case StatusGrabStartFailed:
		return "GrabStartFailed"
	case StatusGetDepthFailed:
		return "GetDepthFailed"
	case StatusFileNotFound:
		return "FileNotFound"
	case StatusReadFailed:
		return "ReadFailed"
	case StatusModelMismatch:
		return "ModelMismatch"
	default:
		return "Unknown"
	}
}

func (s StatusCode) Error() string { return s.String() }
