package capture

import (
	"testing"

	"github.com/ausocean/disparity/block"
)

func buildGrid(rows, cols int, disp, contrast int32) *block.Grid {
	g := block.NewGrid(cols*4, rows*4, 4, 4, 0, 0)
	for i := range g.Cells {
		g.Cells[i] = block.Cell{DispQ10: disp, Contrast: contrast}
	}
	return g
}

// TestMergePrefersLongWhenHighContrast covers spec scenario 6: the
// long-exposure cell is kept wherever its contrast clears the threshold.
func TestMergePrefersLongWhenHighContrast(t *testing.T) {
	long := buildGrid(2, 2, 9000, 5000)
	short := buildGrid(2, 2, 3000, 5000)

	m := NewDoubleShutterMerger(2000)
	out, err := m.Merge(long, short)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	for j := 0; j < out.Height; j++ {
		for i := 0; i < out.Width; i++ {
			if got := out.At(j, i).DispQ10; got != 9000 {
				t.Errorf("cell (%d,%d): got disp_q10=%d, want 9000 (long preferred)", j, i, got)
			}
		}
	}
}

func TestMergeFallsBackToShortWhenLowContrast(t *testing.T) {
	long := buildGrid(2, 2, 9000, 500)
	short := buildGrid(2, 2, 3000, 5000)

	m := NewDoubleShutterMerger(2000)
	out, err := m.Merge(long, short)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	for j := 0; j < out.Height; j++ {
		for i := 0; i < out.Width; i++ {
			if got := out.At(j, i).DispQ10; got != 3000 {
				t.Errorf("cell (%d,%d): got disp_q10=%d, want 3000 (short fallback)", j, i, got)
			}
		}
	}
}

func TestMergeGeometryMismatch(t *testing.T) {
	long := buildGrid(2, 2, 1000, 5000)
	short := buildGrid(3, 3, 1000, 5000)

	if _, err := NewDoubleShutterMerger(2000).Merge(long, short); err == nil {
		t.Error("expected geometry mismatch error, got nil")
	}
}
