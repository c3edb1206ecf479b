/*
DESCRIPTION
  stereocam_test.go tests the Camera RawSource.

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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/utils/logging"
)

// writeSleepHelper writes a shell script that ignores its arguments and
// sleeps, standing in for the vendor capture helper binary.
func writeSleepHelper(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helper.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nsleep 5\n"), 0o755); err != nil {
		t.Fatalf("could not write helper script: %v", err)
	}
	return path
}

type fakeReg struct {
	writes [][]byte
}

func (f *fakeReg) ReadRegister(wbuf, rbuf []byte) (int, error) { return len(rbuf), nil }
func (f *fakeReg) WriteRegister(wbuf []byte) error {
	f.writes = append(f.writes, append([]byte(nil), wbuf...))
	return nil
}

func TestCameraIsRunning(t *testing.T) {
	reg := &fakeReg{}
	c := New((*logging.TestLogger)(t), reg)

	if err := c.Set(Config{HelperPath: writeSleepHelper(t), Width: 64, Height: 48}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Start(device.ShutterManual, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !c.IsRunning() {
		t.Error("expected camera to be running after Start")
	}
	if err := c.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if c.IsRunning() {
		t.Error("expected camera to not be running after Stop")
	}
}

func TestCameraSetDefaultsBadFields(t *testing.T) {
	c := New((*logging.TestLogger)(t), nil)
	err := c.Set(Config{})
	if err == nil {
		t.Fatal("expected an error for an empty Config")
	}
	if c.cfg.HelperPath != defaultHelperPath {
		t.Errorf("got HelperPath=%q, want default %q", c.cfg.HelperPath, defaultHelperPath)
	}
	if c.cfg.Width != defaultWidth || c.cfg.Height != defaultHeight {
		t.Errorf("got %dx%d, want default %dx%d", c.cfg.Width, c.cfg.Height, defaultWidth, defaultHeight)
	}
}

func TestCameraSetOptionPushesToRegister(t *testing.T) {
	reg := &fakeReg{}
	c := New((*logging.TestLogger)(t), reg)

	if err := c.SetOption(device.OptOcclusionRemoval, device.IntValue(3)); err != nil {
		t.Fatalf("SetOption: %v", err)
	}
	if len(reg.writes) != 1 || reg.writes[0][0] != 0x81 || reg.writes[0][1] != 3 {
		t.Errorf("got writes=%v, want one write {0x81, 3}", reg.writes)
	}

	got, err := c.GetOption(device.OptOcclusionRemoval)
	if err != nil {
		t.Fatalf("GetOption: %v", err)
	}
	if got.Int != 3 {
		t.Errorf("got Int=%d, want 3", got.Int)
	}
}
