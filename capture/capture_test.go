package capture

import (
	"testing"
	"time"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/ring"
	"github.com/ausocean/utils/logging"
)

// fakeSource is a device.RawSource that yields a fixed number of frames
// then reports device.NoImage{} forever after.
type fakeSource struct {
	n       int
	emitted int
	opened  bool
	started bool
	closed  bool
}

func (s *fakeSource) Name() string { return "fake" }
func (s *fakeSource) Open() error  { s.opened = true; return nil }
func (s *fakeSource) Close() error { s.closed = true; return nil }
func (s *fakeSource) Start(mode device.ShutterMode, color bool) error {
	s.started = true
	return nil
}
func (s *fakeSource) Stop() error { s.started = false; return nil }
func (s *fakeSource) Read(waitMs int) (*frame.Frame, error) {
	if s.emitted >= s.n {
		return nil, device.NoImage{}
	}
	s.emitted++
	return &frame.Frame{Index: uint64(s.emitted), Ts: time.Now(), Kind: frame.KindRaw}, nil
}
func (s *fakeSource) GetOption(name string) (device.ParameterValue, error) {
	return device.ParameterValue{}, nil
}
func (s *fakeSource) SetOption(name string, v device.ParameterValue) error { return nil }

type feedCounter struct{ n int }

func (c *feedCounter) Feed(f *frame.Frame) { c.n++ }

func TestEngineCapturesFrames(t *testing.T) {
	src := &fakeSource{n: 5}
	r := ring.New[*frame.Frame](8)
	cal := &feedCounter{}

	e := New((*logging.TestLogger)(t), Config{
		Source:     src,
		Ring:       r,
		Calibrator: cal,
		ReadWaitMs: 0,
	})
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for r.Len() < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if !src.opened || !src.started || src.closed == false {
		t.Errorf("source lifecycle incomplete: opened=%v started=%v closed=%v", src.opened, src.started, src.closed)
	}
	if cal.n == 0 {
		t.Error("calibrator was never fed a frame")
	}
	if r.Len() == 0 {
		t.Error("ring never received a frame")
	}
}

func TestEngineStopIdempotent(t *testing.T) {
	src := &fakeSource{n: 0}
	r := ring.New[*frame.Frame](4)
	e := New((*logging.TestLogger)(t), Config{Source: src, Ring: r, ReadWaitMs: 0})
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
