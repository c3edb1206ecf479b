/*
DESCRIPTION
  pool.go implements Pool, a fixed set of long-lived row-band workers shared
  by the block matcher and averager stages. Each worker waits on a start
  event, processes a disjoint row range, and signals a done event; the pool
  is created once at engine start and torn down at stop, so no goroutines
  are spawned per frame.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package band provides Pool, a persistent fork-join worker pool over
// disjoint row ranges, used by the block matcher and averager.
package band

// Task processes rows [jStart, jEnd) of the current job.
type Task func(jStart, jEnd int)

// job is handed to a worker for one Run call.
type job struct {
	jStart, jEnd int
	task         Task
}

// Pool is a fixed-size set of long-lived band workers. Workers are spawned
// once by New and exit when Close is called; Run performs one fork-join
// round, splitting [0, height) into n contiguous bands.
type Pool struct {
	n      int
	startC []chan job
	doneC  []chan struct{}
	stopC  chan struct{}
}

// New returns a Pool of n persistent band workers. n must be in [1, 40]
// per the documented band-count range.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	if n > 40 {
		n = 40
	}
	p := &Pool{
		n:      n,
		startC: make([]chan job, n),
		doneC:  make([]chan struct{}, n),
		stopC:  make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		p.startC[i] = make(chan job)
		p.doneC[i] = make(chan struct{})
		go p.worker(i)
	}
	return p
}

// worker waits on its start channel, runs the assigned task over its band,
// and signals done, until the pool is closed.
func (p *Pool) worker(i int) {
	for {
		select {
		case j := <-p.startC[i]:
			j.task(j.jStart, j.jEnd)
			p.doneC[i] <- struct{}{}
		case <-p.stopC:
			return
		}
	}
}

// Run splits [0, height) into p.n contiguous row bands and runs task over
// each band concurrently, returning once every band has completed (fork
// -join). Bands operate on disjoint ranges so no locking is required
// inside task.
func (p *Pool) Run(height int, task Task) {
	bands := splitBands(height, p.n)
	for i, b := range bands {
		p.startC[i] <- job{jStart: b.start, jEnd: b.end, task: task}
	}
	for i := range bands {
		<-p.doneC[i]
	}
}

// bandRange is a contiguous, half-open row range.
type bandRange struct{ start, end int }

// splitBands divides [0, height) into at most n contiguous, non-empty
// bands. If height < n, fewer bands are returned (idle workers are simply
// not given a job this round).
func splitBands(height, n int) []bandRange {
	if n > height {
		n = height
	}
	if n < 1 {
		return nil
	}
	base := height / n
	rem := height % n
	bands := make([]bandRange, n)
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		bands[i] = bandRange{start: start, end: start + size}
		start += size
	}
	return bands
}

// N returns the number of persistent workers in the pool.
func (p *Pool) N() int { return p.n }

// Close stops all persistent workers. Close must not be called
// concurrently with Run.
func (p *Pool) Close() {
	close(p.stopC)
}
