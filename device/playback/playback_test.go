package playback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/recorder"
	"github.com/ausocean/utils/logging"
)

func writeTestFile(t *testing.T, path string, model recorder.CameraModel, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("could not create test file: %v", err)
	}
	defer f.Close()

	h := recorder.Header{Model: model, GrabMode: recorder.GrabParallax, MaxWidth: 4, MaxHeight: 4}
	if err := recorder.WriteHeader(f, h); err != nil {
		t.Fatalf("could not write header: %v", err)
	}
	for i := 0; i < frames; i++ {
		data := make([]byte, 32)
		fh := recorder.FrameHeader{Index: uint64(i), Type: recorder.RecordMono, DataSize: uint32(len(data))}
		if err := recorder.WriteFrameHeader(f, fh); err != nil {
			t.Fatalf("could not write frame header: %v", err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatalf("could not write frame data: %v", err)
		}
	}
}

func TestPlayerReadsRecordedFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.bin")
	writeTestFile(t, path, recorder.ModelVM, 3)

	p := New((*logging.TestLogger)(t), path, recorder.ModelVM, 0)
	if err := p.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p.Start(device.ShutterManual, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	for i := 0; i < 3; i++ {
		f, err := p.Read(0)
		if err != nil {
			t.Fatalf("Read %d: %v", i, err)
		}
		if f.Kind != frame.KindRaw {
			t.Errorf("frame %d: got kind %v, want KindRaw", i, f.Kind)
		}
		if f.Index != uint64(i) {
			t.Errorf("frame %d: got index %d, want %d", i, f.Index, i)
		}
	}

	if _, err := p.Read(0); err == nil {
		t.Error("expected NoImage at EOF, got nil error")
	} else if _, ok := err.(device.NoImage); !ok {
		t.Errorf("expected device.NoImage at EOF, got %T: %v", err, err)
	}
}

func TestPlayerModelMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.bin")
	writeTestFile(t, path, recorder.ModelVM, 1)

	p := New((*logging.TestLogger)(t), path, recorder.ModelXC, 0)
	if err := p.Start(device.ShutterManual, false); err != ErrModelMismatch {
		t.Errorf("got %v, want ErrModelMismatch", err)
	}
}

func TestPlayerFileNotFound(t *testing.T) {
	p := New((*logging.TestLogger)(t), filepath.Join(t.TempDir(), "missing.bin"), recorder.ModelUnknown, 0)
	if err := p.Open(); err != ErrFileNotFound {
		t.Errorf("got %v, want ErrFileNotFound", err)
	}
}

func TestPlayerSeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.bin")
	writeTestFile(t, path, recorder.ModelUnknown, 5)

	p := New((*logging.TestLogger)(t), path, recorder.ModelUnknown, 0)
	if err := p.Start(device.ShutterManual, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	if err := p.Seek(3); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	f, err := p.Read(0)
	if err != nil {
		t.Fatalf("Read after seek: %v", err)
	}
	if f.Index != 3 {
		t.Errorf("got index %d after Seek(3), want 3", f.Index)
	}
}
