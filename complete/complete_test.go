package complete

import (
	"testing"

	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/paramstore"
)

// buildHoleFillGrid builds a single row of 9 blocks: valid disparity 40 at
// columns 0..2 and 6..8, invalid at 3..5, per spec scenario 4. All other
// rows are filled with the same pattern, so vertical scans find no valid
// cell in columns 3..5 and the horizontal scan fills them before the
// diagonal scans run.
func buildHoleFillGrid(rows int) *block.Grid {
	const blkH, blkW = 4, 4
	const cols = 9
	g := block.NewGrid(cols*blkW, rows*blkH, blkH, blkW, 0, 0)
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			c := block.Cell{Contrast: 100}
			if i < 3 || i > 5 {
				c.DispQ10 = 40000
			}
			g.Set(j, i, c)
		}
	}
	return g
}

func TestCompleterHoleFill(t *testing.T) {
	g := buildHoleFillGrid(9)
	cp := paramstore.CompletionParameters{
		LowLimitPx:  5,
		SlopeLimit:  0.1,
		PixelRatios: paramstore.PixelRatios{Inside: 100, Round: 75, Bottom: 50},
		ContrastLim: 1000,
		HoleSizePx:  8,
	}

	c := New(4, 4)
	out := c.Complete(g, cp)

	midRow := 4
	for i := 3; i <= 5; i++ {
		got := out.At(midRow, i)
		if got.DispQ10 != 40000 {
			t.Errorf("column %d: got disp_q10=%d, want 40000 (flat interpolation)", i, got.DispQ10)
		}
	}
}

// TestFillRunUsesPixelScaleSlope exercises a gap where the forward/backward
// disparities differ by a small amount in pixel terms (10px vs 10.05px) but
// by a large amount in raw disp_q10 terms (10000 vs 10050): the true slope
// (0.05 px over an 8 px span, about 0.006) is well under SlopeLimit (0.1),
// so the gap must be filled. Comparing the raw q10 values directly against
// the pixel-scale SlopeLimit would compute a bogus slope of 50/8 = 6.25 and
// wrongly leave the gap empty.
func TestFillRunUsesPixelScaleSlope(t *testing.T) {
	const blkH, blkW = 4, 4
	g := block.NewGrid(3*blkW, 1*blkH, blkH, blkW, 0, 0)
	g.Set(0, 0, block.Cell{DispQ10: 10000, Contrast: 100})
	g.Set(0, 1, block.Cell{DispQ10: 0, Contrast: 100})
	g.Set(0, 2, block.Cell{DispQ10: 10050, Contrast: 100})

	cp := paramstore.CompletionParameters{
		LowLimitPx:  5,
		SlopeLimit:  0.1,
		PixelRatios: paramstore.PixelRatios{Inside: 100, Round: 75, Bottom: 50},
		ContrastLim: 1000,
		HoleSizePx:  8,
	}

	c := New(blkH, blkW)
	out := c.Complete(g, cp)

	got := out.At(0, 1)
	if !got.Valid() {
		t.Fatalf("gap was not filled: got %+v", got)
	}
	if got.DispQ10 <= 10000 || got.DispQ10 >= 10050 {
		t.Errorf("got disp_q10=%d, want a value strictly between 10000 and 10050", got.DispQ10)
	}
}

func TestCompleterMonotonicity(t *testing.T) {
	g := buildHoleFillGrid(9)
	before := g.ValidCount()

	cp := paramstore.CompletionParameters{
		LowLimitPx:  5,
		SlopeLimit:  0.1,
		PixelRatios: paramstore.PixelRatios{Inside: 100, Round: 75, Bottom: 50},
		ContrastLim: 1000,
		HoleSizePx:  8,
		HoleFill:    true,
	}
	c := New(4, 4)
	out := c.Complete(g, cp)

	if out.ValidCount() < before {
		t.Fatalf("valid count decreased: before=%d after=%d", before, out.ValidCount())
	}
}
