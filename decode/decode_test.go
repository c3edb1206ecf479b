package decode

import (
	"testing"

	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/paramstore"
)

// buildDisparityPlane builds a 2W x H interleaved plane whose reference
// half is a constant gray (128) and whose compare half encodes, in block
// (0,0), byte0=20, byte1=0x80, mask2=0x0F, mask1=0, per spec scenario 3.
func buildDisparityPlane(w, h int) frame.Image {
	im := frame.NewImage(2*w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.Set(2*x, y, 128) // Reference.
			im.Set(2*x+1, y, 0) // Compare, overwritten below for block (0,0).
		}
	}
	row0 := im.Row(0)
	row0[1] = 20   // byte0: integer disparity.
	row0[3] = 0x80 // byte1: fractional nibble 8 -> 0.5.
	row0[5] = 0x0F // byte2: mask low byte.
	row0[7] = 0    // byte3: mask high byte.
	return im
}

func TestDecodeDisparityMask(t *testing.T) {
	const w, h = 8, 8
	im := buildDisparityPlane(w, h)

	p := Params{
		Mode: ModeDisparity,
		Matching: paramstore.MatchingParameters{
			ImgW: w, ImgH: h,
			BlkH: 4, BlkW: 4,
			Depth: 32,
		},
	}

	res, err := Decode(im, p)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	valid := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			got := res.Disparity.At(x, y)
			bit := y*4 + x
			if bit < 4 {
				if got != 20.5 {
					t.Errorf("pixel (%d,%d): got disparity %v, want 20.5", x, y, got)
				}
				valid++
			} else if got != 0 {
				t.Errorf("pixel (%d,%d): got disparity %v, want 0", x, y, got)
			}
		}
	}
	if valid != 4 {
		t.Fatalf("got %d valid pixels, want 4", valid)
	}
}

func TestDecodeIdempotence(t *testing.T) {
	const w, h = 8, 8
	im := buildDisparityPlane(w, h)
	p := Params{
		Mode: ModeDisparity,
		Matching: paramstore.MatchingParameters{
			ImgW: w, ImgH: h,
			BlkH: 4, BlkW: 4,
			Depth: 32,
		},
	}

	r1, err := Decode(im, p)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	r2, err := Decode(im, p)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for i := range r1.Disparity.Disp {
		if r1.Disparity.Disp[i] != r2.Disparity.Disp[i] {
			t.Fatalf("disparity at index %d differs between runs: %v vs %v", i, r1.Disparity.Disp[i], r2.Disparity.Disp[i])
		}
	}
	for i := range r1.Grid.Cells {
		if r1.Grid.Cells[i] != r2.Grid.Cells[i] {
			t.Fatalf("grid cell %d differs between runs", i)
		}
	}
}

func TestDecodeImageMode(t *testing.T) {
	const w, h = 4, 2
	im := frame.NewImage(2*w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			im.Set(2*x, y, byte(10+x))
			im.Set(2*x+1, y, byte(200+x))
		}
	}
	p := Params{Mode: ModeImage, Matching: paramstore.MatchingParameters{ImgW: w, ImgH: h}}
	res, err := Decode(im, p)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if res.Disparity != nil || res.Grid != nil {
		t.Fatalf("ModeImage decode should not produce disparity output")
	}
	for x := 0; x < w; x++ {
		if got := res.Reference.At(x, 0); got != byte(10+x) {
			t.Errorf("reference pixel %d: got %d, want %d", x, got, 10+x)
		}
	}
}

func TestDecodeShortPlaneRejected(t *testing.T) {
	im := frame.NewImage(4, 4)
	_, err := Decode(im, Params{Mode: ModeImage, Matching: paramstore.MatchingParameters{ImgW: 4, ImgH: 8}})
	if err == nil {
		t.Fatal("expected error for undersized plane")
	}
}
