/*
DESCRIPTION
  pipeline.go implements Pipeline, orchestrating CaptureEngine through
  Decoder/BlockMatcher, Averager and Completer, and exposing the result and
  geometry queries used by consumers.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package disparity

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/disparity/average"
	"github.com/ausocean/disparity/band"
	"github.com/ausocean/disparity/block"
	"github.com/ausocean/disparity/capture"
	"github.com/ausocean/disparity/complete"
	"github.com/ausocean/disparity/decode"
	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/frame"
	"github.com/ausocean/disparity/match"
	"github.com/ausocean/disparity/paramstore"
	"github.com/ausocean/disparity/recorder"
	"github.com/ausocean/disparity/ring"
	"github.com/ausocean/utils/logging"
)

// Used to indicate package in logging.
const pkg = "disparity: "

// CalibrationConstants are the per-camera constants needed to convert
// disparity to metric depth and 3D position.
type CalibrationConstants struct {
	DInf       float64
	BF         float64
	BaseLength float64
}

// Mode selects how Pipeline routes a captured frame.
type Mode uint8

// Valid Mode values.
const (
	// ModeEncoded routes through the Decoder, then Averager, then Completer.
	ModeEncoded Mode = iota
	// ModeRectified routes through the BlockMatcher, then Completer. The
	// matcher's grid is not averaged, and the Averager is not run on it.
	ModeRectified
)

// Config configures a Pipeline.
type Config struct {
	Source     device.RawSource
	Sink       *recorder.Sink
	Calibrator capture.SelfCalibrator

	Mode  device.ShutterMode
	Color bool

	RingCapacity int
	ReadWaitMs   int
	BandCount    int

	Matching     paramstore.MatchingParameters
	BackMatching paramstore.BackMatchingParameters
	Averaging    paramstore.AveragingParameters
	Completion   paramstore.CompletionParameters
	Limit        paramstore.DisparityLimit
	CrstOfs      int32

	DecodeMode Mode
	Calib      CalibrationConstants
}

// Pipeline orchestrates the full capture-to-disparity data path.
type Pipeline struct {
	log logging.Logger
	cfg Config

	engine    *capture.Engine
	ring      *ring.RingBuffer[*frame.Frame]
	pool      *band.Pool
	matcher   *match.Matcher
	averager  *average.Averager
	completer *complete.Completer

	mu        sync.Mutex
	lastGrid  *block.Grid
	lastImage *block.DisparityImage
}

// New returns a new Pipeline.
func New(l logging.Logger, cfg Config) *Pipeline {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 16
	}
	if cfg.BandCount <= 0 {
		cfg.BandCount = 4
	}
	return &Pipeline{log: l, cfg: cfg}
}

// Start composes the capture engine and primes the band worker pools used
// by the block matcher and averager.
func (p *Pipeline) Start() error {
	p.ring = ring.New[*frame.Frame](p.cfg.RingCapacity)
	p.pool = band.New(p.cfg.BandCount)
	p.matcher = match.NewMatcher(p.pool)
	p.averager = average.NewAverager(p.pool)
	p.completer = complete.New(p.cfg.Matching.BlkH, p.cfg.Matching.BlkW)

	eng := capture.New(p.log, capture.Config{
		Source:     p.cfg.Source,
		Ring:       p.ring,
		Sink:       p.cfg.Sink,
		Calibrator: p.cfg.Calibrator,
		Mode:       p.cfg.Mode,
		Color:      p.cfg.Color,
		ReadWaitMs: p.cfg.ReadWaitMs,
	})
	if err := eng.Start(); err != nil {
		p.pool.Close()
		return fmt.Errorf("%sstart failed: %w", pkg, StatusOpenFailed)
	}
	p.engine = eng

	p.log.Info(pkg + "pipeline started")
	return nil
}

// Stop tears down the capture engine and the band worker pool.
func (p *Pipeline) Stop() error {
	if p.engine != nil {
		if err := p.engine.Stop(); err != nil {
			p.log.Error(pkg+"capture engine stop reported errors", "error", err.Error())
		}
	}
	if p.pool != nil {
		p.pool.Close()
	}
	p.log.Info(pkg + "pipeline stopped")
	return nil
}

// dequeue pulls the next available frame from the ring, or returns
// StatusNoImage.
func (p *Pipeline) dequeue() (*frame.Frame, error) {
	idx, _, err := p.ring.GetBegin()
	if err != nil {
		return nil, StatusNoImage
	}
	f := p.ring.Value(idx)
	p.ring.GetCommit(idx)
	if f == nil {
		return nil, StatusNoImage
	}
	return f, nil
}

// process routes one frame through the configured mode and optional
// completion pass.
func (p *Pipeline) process(f *frame.Frame) (*block.Grid, error) {
	var grid *block.Grid

	switch p.cfg.DecodeMode {
	case ModeEncoded:
		// A live FPGA capture carries the plane as Interleaved; a replayed
		// recording carries the identical 2W x H layout as Packed.
		var plane frame.Image
		switch f.Kind {
		case frame.KindEncoded:
			plane = f.Interleaved
		case frame.KindRaw:
			plane = f.Packed
		default:
			return nil, StatusInvalidMode
		}
		res, err := decode.Decode(plane, decode.Params{
			Mode:     decode.ModeDisparity,
			Matching: p.cfg.Matching,
			Limit:    p.cfg.Limit,
			CrstOfs:  p.cfg.CrstOfs,
		})
		if err != nil {
			return nil, StatusIoError
		}
		grid = res.Grid
		if p.cfg.Averaging.Enabled {
			grid = p.averager.Average(grid, p.cfg.Averaging, p.cfg.Matching.Depth)
		}
	case ModeRectified:
		var bp *paramstore.BackMatchingParameters
		if p.cfg.BackMatching.Enabled {
			bp = &p.cfg.BackMatching
		}
		grid = p.matcher.Match(f.Left, f.Right, p.cfg.Matching, bp, p.cfg.CrstOfs)
	default:
		return nil, StatusInvalidMode
	}

	if p.cfg.Completion.Enabled {
		grid = p.completer.Complete(grid, p.cfg.Completion)
	}
	return grid, nil
}

// GetBlockDisparity dequeues the next frame and returns its disparity grid,
// without per-pixel expansion.
func (p *Pipeline) GetBlockDisparity() (*block.Grid, error) {
	f, err := p.dequeue()
	if err != nil {
		return nil, err
	}

	grid, err := p.process(f)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.lastGrid = grid
	p.mu.Unlock()
	return grid, nil
}

// GetDisparity dequeues the next frame, processes it, and returns its
// per-pixel expansion.
func (p *Pipeline) GetDisparity() (*block.DisparityImage, error) {
	grid, err := p.GetBlockDisparity()
	if err != nil {
		return nil, err
	}

	img := expand(grid, p.cfg.Matching.Depth)
	p.mu.Lock()
	p.lastImage = img
	p.mu.Unlock()
	return img, nil
}

// expand writes each valid grid cell's disparity into its Bh x Bw pixel
// tile, anchored at (ofs_x + i*Bw, ofs_y + j*Bh); invalid cells leave the
// tile zeroed.
func expand(g *block.Grid, depth int) *block.DisparityImage {
	w := g.OffsetX + g.Width*g.BlockW
	h := g.OffsetY + g.Height*g.BlockH
	img := block.NewDisparityImage(w, h)

	for j := 0; j < g.Height; j++ {
		for i := 0; i < g.Width; i++ {
			c := g.At(j, i)
			var disp float64
			var vis byte
			if c.Valid() {
				disp = float64(c.DispQ10) / float64(block.SubPixelScale)
				vis = block.VisValue(disp, depth)
			}
			x0 := g.OffsetX + i*g.BlockW
			y0 := g.OffsetY + j*g.BlockH
			for y := y0; y < y0+g.BlockH; y++ {
				for x := x0; x < x0+g.BlockW; x++ {
					img.Set(x, y, disp, vis)
				}
			}
		}
	}
	return img
}

// GetPositionDepth converts the disparity at pixel (x, y) of the most
// recent per-pixel expansion to metric depth, per
// depth_m = bf / (disp + d_inf).
func (p *Pipeline) GetPositionDepth(x, y int) (disp, depthM float64, err error) {
	p.mu.Lock()
	img := p.lastImage
	p.mu.Unlock()
	if img == nil {
		return 0, 0, StatusNoImage
	}
	disp = img.At(x, y)
	if disp <= 0 {
		return 0, 0, StatusGetDepthFailed
	}
	depthM = p.cfg.Calib.BF / (disp + p.cfg.Calib.DInf)
	return disp, depthM, nil
}

// GetPosition3D converts pixel (x, y) to a metric 3D position using a
// pinhole projection with the principal point at the image center.
func (p *Pipeline) GetPosition3D(x, y int) (xM, yM, zM float64, err error) {
	_, depthM, err := p.GetPositionDepth(x, y)
	if err != nil {
		return 0, 0, 0, err
	}

	p.mu.Lock()
	img := p.lastImage
	p.mu.Unlock()

	cx := float64(img.W) / 2
	cy := float64(img.H) / 2
	focal := p.cfg.Calib.BF / p.cfg.Calib.BaseLength

	xM = (float64(x) - cx) * depthM / focal
	yM = (float64(y) - cy) * depthM / focal
	zM = depthM
	return xM, yM, zM, nil
}

// AreaStatistics summarizes per-pixel disparity over a rectangle.
type AreaStatistics struct {
	Min, Max, Mean, Stdev float64
	ValidCount            int
}

// GetAreaStatistics computes disparity statistics over [x0,x1) x [y0,y1) of
// the most recent per-pixel expansion, using gonum/stat for the mean and
// standard deviation.
func (p *Pipeline) GetAreaStatistics(x0, y0, x1, y1 int) (AreaStatistics, error) {
	p.mu.Lock()
	img := p.lastImage
	p.mu.Unlock()
	if img == nil {
		return AreaStatistics{}, StatusNoImage
	}
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > img.W {
		x1 = img.W
	}
	if y1 > img.H {
		y1 = img.H
	}

	var vals []float64
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			d := img.At(x, y)
			if d > 0 {
				vals = append(vals, d)
			}
		}
	}
	if len(vals) == 0 {
		return AreaStatistics{}, nil
	}

	mean, _ := stat.MeanVariance(vals, nil)
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return AreaStatistics{
		Min:        min,
		Max:        max,
		Mean:       mean,
		Stdev:      stat.StdDev(vals, nil),
		ValidCount: len(vals),
	}, nil
}
