/*
DESCRIPTION
  wire.go decodes the fixed frame header the capture helper process writes
  before each frame's raw plane: {w, h, index, ts, gain, exposure, err,
  kind, size}, little-endian, followed by size bytes of pixel data.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package stereocam

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ausocean/disparity/frame"
)

// readFrame reads one frame header and payload from br.
func readFrame(br *bufio.Reader) (*frame.Frame, error) {
	hdr := make([]byte, frameHeaderSize)
	if _, err := io.ReadFull(br, hdr); err != nil {
		return nil, fmt.Errorf("%scould not read frame header: %w", pkg, err)
	}

	w := int(int32(binary.LittleEndian.Uint32(hdr[0:4])))
	h := int(int32(binary.LittleEndian.Uint32(hdr[4:8])))
	index := binary.LittleEndian.Uint64(hdr[8:16])
	tsNano := int64(binary.LittleEndian.Uint64(hdr[16:24]))
	gain := int(int32(binary.LittleEndian.Uint32(hdr[24:28])))
	exposure := int(int32(binary.LittleEndian.Uint32(hdr[28:32])))
	errCode := int(int32(binary.LittleEndian.Uint32(hdr[32:36])))
	kind := frame.Kind(hdr[36])
	size := int(binary.LittleEndian.Uint32(hdr[37:41]))

	pix := make([]byte, size)
	if _, err := io.ReadFull(br, pix); err != nil {
		return nil, fmt.Errorf("%scould not read frame payload: %w", pkg, err)
	}

	f := &frame.Frame{
		W: w, H: h,
		Index:    index,
		Ts:       time.Unix(0, tsNano),
		Gain:     gain,
		Exposure: exposure,
		Err:      errCode,
		Kind:     kind,
	}

	switch kind {
	case frame.KindRectified:
		half := w * h
		if len(pix) < 2*half {
			return nil, fmt.Errorf("%sshort rectified payload: got %d, want %d", pkg, len(pix), 2*half)
		}
		f.Left = frame.Image{W: w, H: h, Pix: pix[:half]}
		f.Right = frame.Image{W: w, H: h, Pix: pix[half : 2*half]}
	case frame.KindEncoded:
		f.Interleaved = frame.Image{W: 2 * w, H: h, Pix: pix}
	case frame.KindRaw:
		f.Packed = frame.Image{W: 2 * w, H: h, Pix: pix}
	default:
		return nil, fmt.Errorf("%sunknown frame kind: %d", pkg, kind)
	}

	return f, nil
}
