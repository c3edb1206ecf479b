package disparity

import (
	"testing"
	"time"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/paramstore"
	"github.com/ausocean/utils/logging"
)

// fakeSource emits a single fixed stereo pair with a uniform horizontal
// shift, then device.NoImage{} forever after.
type fakeSource struct {
	w, h, shift int
	emitted     bool
}

func buildShiftedImages(w, h, shift int) (frame.Image, frame.Image) {
	left := frame.NewImage(w, h)
	right := frame.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte((x * 7) % 251)
			left.Set(x, y, v)
			sx := x - shift
			if sx < 0 {
				sx = 0
			}
			right.Set(x, y, left.At(sx, y))
		}
	}
	return left, right
}

func (s *fakeSource) Name() string { return "fake" }
func (s *fakeSource) Open() error  { return nil }
func (s *fakeSource) Close() error { return nil }
func (s *fakeSource) Start(mode device.ShutterMode, color bool) error { return nil }
func (s *fakeSource) Stop() error                                    { return nil }
func (s *fakeSource) Read(waitMs int) (*frame.Frame, error) {
	if s.emitted {
		return nil, device.NoImage{}
	}
	s.emitted = true
	left, right := buildShiftedImages(s.w, s.h, s.shift)
	return &frame.Frame{W: s.w, H: s.h, Index: 1, Ts: time.Now(), Kind: frame.KindRectified, Left: left, Right: right}, nil
}
func (s *fakeSource) GetOption(name string) (device.ParameterValue, error) {
	return device.ParameterValue{}, nil
}
func (s *fakeSource) SetOption(name string, v device.ParameterValue) error { return nil }

func TestPipelineRectifiedRoundTrip(t *testing.T) {
	src := &fakeSource{w: 32, h: 32, shift: 3}

	mp := paramstore.DefaultMatching()
	mp.ImgW, mp.ImgH = 32, 32
	mp.Depth = 8

	cfg := Config{
		Source:     src,
		Mode:       device.ShutterManual,
		Matching:   mp,
		DecodeMode: ModeRectified,
		BandCount:  2,
		Calib:      CalibrationConstants{BF: 100, DInf: 0, BaseLength: 0.1},
	}

	p := New((*logging.TestLogger)(t), cfg)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	var grid interface{}
	deadline := time.Now().Add(2 * time.Second)
	var err error
	for time.Now().Before(deadline) {
		grid, err = p.GetDisparity()
		if err == nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GetDisparity: %v", err)
	}
	if grid == nil {
		t.Fatal("GetDisparity returned nil image")
	}

	if _, _, err := p.GetPositionDepth(16, 16); err != nil {
		t.Logf("GetPositionDepth at (16,16): %v (acceptable if that pixel has no valid disparity)", err)
	}

	stats, err := p.GetAreaStatistics(0, 0, 32, 32)
	if err != nil {
		t.Fatalf("GetAreaStatistics: %v", err)
	}
	if stats.ValidCount == 0 {
		t.Error("expected at least one valid disparity pixel in the uniform-shift test image")
	}
}

func TestPipelineNoImageWhenEmpty(t *testing.T) {
	src := &fakeSource{w: 16, h: 16, shift: 0, emitted: true}
	mp := paramstore.DefaultMatching()
	mp.ImgW, mp.ImgH = 16, 16

	cfg := Config{Source: src, Mode: device.ShutterManual, Matching: mp, DecodeMode: ModeRectified, BandCount: 1}
	p := New((*logging.TestLogger)(t), cfg)
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if _, err := p.GetDisparity(); err != StatusNoImage {
		t.Errorf("got %v, want StatusNoImage", err)
	}
}
