package paramstore

import (
	"path/filepath"
	"testing"

	"github.com/ausocean/utils/logging"
)

func TestStoreApplyIsDoubleBuffered(t *testing.T) {
	s := NewStore((*logging.TestLogger)(t), DefaultConfig((*logging.TestLogger)(t)))

	before := s.Get()
	s.Set(KeyDepth, "64")

	// The active snapshot must be unaffected until Apply is called.
	if got := s.Get().Matching.Depth; got != before.Matching.Depth {
		t.Fatalf("active config changed before Apply: got Depth=%d, want %d", got, before.Matching.Depth)
	}
	if !s.Pending() {
		t.Fatal("expected a pending update after Set")
	}

	if !s.Apply() {
		t.Fatal("Apply reported nothing to apply")
	}
	if got := s.Get().Matching.Depth; got != 64 {
		t.Errorf("after Apply: got Depth=%d, want 64", got)
	}
	if s.Pending() {
		t.Error("expected no pending update after Apply")
	}
	if s.Apply() {
		t.Error("second Apply with nothing staged should report false")
	}
}

func TestStoreValidateDefaultsBadField(t *testing.T) {
	s := NewStore((*logging.TestLogger)(t), DefaultConfig((*logging.TestLogger)(t)))
	s.Set(KeyDepth, "-1")
	s.Apply()

	if got := s.Get().Matching.Depth; got != 32 {
		t.Errorf("got Depth=%d after invalid update, want default 32", got)
	}
}

func TestINIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.ini")

	cfg := DefaultConfig((*logging.TestLogger)(t))
	cfg.Matching.Depth = 48
	cfg.Matching.BlkH = 8
	cfg.Completion.SlopeLimit = 0.25
	cfg.Averaging.Enabled = true

	if err := SaveINI(path, cfg); err != nil {
		t.Fatalf("SaveINI: %v", err)
	}

	got, err := LoadINI(path, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("LoadINI: %v", err)
	}

	if got.Matching.Depth != 48 {
		t.Errorf("got Depth=%d, want 48", got.Matching.Depth)
	}
	if got.Matching.BlkH != 8 {
		t.Errorf("got BlkH=%d, want 8", got.Matching.BlkH)
	}
	if got.Completion.SlopeLimit != 0.25 {
		t.Errorf("got SlopeLimit=%v, want 0.25", got.Completion.SlopeLimit)
	}
	if !got.Averaging.Enabled {
		t.Error("got Averaging.Enabled=false, want true")
	}
}

func TestReloadModuleFromFileIsolatesModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matching.ini")

	file := DefaultConfig((*logging.TestLogger)(t))
	file.Matching.Depth = 96
	file.Completion.SlopeLimit = 0.9 // Belongs to a different module; must be ignored.
	if err := SaveINI(path, file); err != nil {
		t.Fatalf("SaveINI: %v", err)
	}

	s := NewStore((*logging.TestLogger)(t), DefaultConfig((*logging.TestLogger)(t)))
	matchingIdx := -1
	for i := 0; i < ModuleCount(); i++ {
		name, _ := ModuleName(i)
		if name == "Matching" {
			matchingIdx = i
		}
	}
	if matchingIdx < 0 {
		t.Fatal("no Matching module found")
	}

	if err := s.ReloadModuleFromFile(matchingIdx, path, false); err != nil {
		t.Fatalf("ReloadModuleFromFile: %v", err)
	}
	if !s.Pending() {
		t.Fatal("expected a pending update after ReloadModuleFromFile with applyImmediately=false")
	}
	if got := s.Get().Matching.Depth; got == 96 {
		t.Fatal("active config changed before Apply")
	}

	s.Apply()
	if got := s.Get().Matching.Depth; got != 96 {
		t.Errorf("got Depth=%d, want 96", got)
	}
	if got := s.Get().Completion.SlopeLimit; got == 0.9 {
		t.Error("Completion.SlopeLimit changed by a Matching-module reload")
	}
}

func TestReloadModuleFromFileAppliesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "averaging.ini")

	file := DefaultConfig((*logging.TestLogger)(t))
	file.Averaging.WinH = 9
	if err := SaveINI(path, file); err != nil {
		t.Fatalf("SaveINI: %v", err)
	}

	s := NewStore((*logging.TestLogger)(t), DefaultConfig((*logging.TestLogger)(t)))
	avgIdx := -1
	for i := 0; i < ModuleCount(); i++ {
		name, _ := ModuleName(i)
		if name == "Averaging" {
			avgIdx = i
		}
	}

	if err := s.ReloadModuleFromFile(avgIdx, path, true); err != nil {
		t.Fatalf("ReloadModuleFromFile: %v", err)
	}
	if s.Pending() {
		t.Error("expected no pending update after an immediate reload")
	}
	if got := s.Get().Averaging.WinH; got != 9 {
		t.Errorf("got WinH=%d, want 9", got)
	}
}

func TestReloadModuleFromFileBadIndex(t *testing.T) {
	s := NewStore((*logging.TestLogger)(t), DefaultConfig((*logging.TestLogger)(t)))
	if err := s.ReloadModuleFromFile(ModuleCount(), "unused.ini", false); err == nil {
		t.Fatal("expected an error for an out-of-range module index")
	}
}
