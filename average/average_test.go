package average

import (
	"testing"

	"github.com/ausocean/disparity/band"
	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/paramstore"
)

func uniformGrid(h, w int, disp int32) *block.Grid {
	g := block.NewGrid(w*4, h*4, 4, 4, 0, 0)
	for i := range g.Cells {
		g.Cells[i] = block.Cell{DispQ10: disp, Contrast: 5000}
	}
	return g
}

func TestAveragingStability(t *testing.T) {
	g := uniformGrid(12, 12, 7000)
	ap := paramstore.DefaultAveraging()
	ap.Enabled = true
	ap.DispRatioPct = 1
	ap.ValidRatioPct = 1
	ap.ReplaceRatioPct = 1

	pool := band.New(4)
	defer pool.Close()
	a := NewAverager(pool)

	once := a.Average(g, ap, 32)
	twice := a.Average(once, ap, 32)

	for idx := range once.Cells {
		d1 := once.Cells[idx].DispQ10
		d2 := twice.Cells[idx].DispQ10
		diff := d1 - d2
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			t.Errorf("cell %d: disparity changed by %d between runs, want <= 1", idx, diff)
		}
	}
}

func TestAverageMarginUnchanged(t *testing.T) {
	g := uniformGrid(8, 8, 5000)
	ap := paramstore.DefaultAveraging()
	ap.Enabled = true

	pool := band.New(2)
	defer pool.Close()
	out := NewAverager(pool).Average(g, ap, 32)

	// Top-left corner sits within the window margin and must pass through.
	if out.At(0, 0) != g.At(0, 0) {
		t.Errorf("margin cell changed: got %+v, want %+v", out.At(0, 0), g.At(0, 0))
	}
}

func TestModeOfHistogramBreaksTiesWithinOneRun(t *testing.T) {
	hist := make([]int64, 16)
	// Two disjoint maximal runs: buckets [2,4] and [10,10], both count 5.
	// The longest run is [2,4], so the mode must land at its midpoint, 3,
	// not at the midpoint of the two runs' overall span (6).
	hist[2], hist[3], hist[4] = 5, 5, 5
	hist[10] = 5

	got := modeOfHistogram(hist)
	if want := 3; got != want {
		t.Errorf("got mode=%d, want %d (midpoint of the longest maximal run)", got, want)
	}
}

func TestModeOfHistogramSingleRun(t *testing.T) {
	hist := make([]int64, 16)
	hist[7], hist[8] = 9, 9

	got := modeOfHistogram(hist)
	if want := 7; got != want {
		t.Errorf("got mode=%d, want %d", got, want)
	}
}
