/*
DESCRIPTION
  disparityd is a standalone client for the disparity pipeline: it either
  replays a recorded stereo file or drives a live stereo camera over
  stereocam/registerio, and periodically logs disparity and area
  statistics.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements disparityd, the disparity pipeline's standalone
// CLI client.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/disparity/device"
	"github.com/ausocean/disparity/device/playback"
	"github.com/ausocean/disparity/device/stereocam"
	"github.com/ausocean/disparity/disparity"
	"github.com/ausocean/disparity/paramstore"
	"github.com/ausocean/disparity/recorder"
	"github.com/ausocean/disparity/registerio"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logPath      = "disparityd.log"
	logMaxSizeMB = 100
	logMaxBackup = 5
	logMaxAgeDays = 28
	logVerbosity = logging.Info
	logSuppress  = false
)

const pkg = "disparityd: "

func main() {
	showVersion := flag.Bool("version", false, "show version")
	playPath := flag.String("play", "", "path to a recorded stereo file to replay")
	live := flag.Bool("live", false, "capture from a live stereo camera instead of replaying -play")
	helperPath := flag.String("helper", "", "path to the vendor capture helper binary, used with -live")
	i2cBus := flag.Int("i2c-bus", 1, "I2C bus number for the camera's control registers, used with -live")
	i2cAddr := flag.Uint("i2c-addr", 0x40, "I2C device address for the camera's control registers, used with -live")
	configPath := flag.String("config", "", "path to an INI parameter file (optional; defaults used if absent)")
	model := flag.Uint("model", uint(recorder.ModelUnknown), "expected camera model tag; ModelUnknown skips the check, used with -play")
	intervalMs := flag.Int("interval-ms", 0, "playback pacing interval, in milliseconds, used with -play")
	maxFrames := flag.Int("frames", 0, "stop after this many frames; 0 means no frame limit")
	statsEvery := flag.Int("stats-every", 30, "log area statistics every N frames")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	if !*live && *playPath == "" {
		fmt.Fprintln(os.Stderr, pkg+"one of -play or -live is required")
		os.Exit(int(-disparity.StatusInvalidParameter))
	}

	fileLog := &lumberjack.Logger{
		Filename: logPath,
		MaxSize:  logMaxSizeMB,
		MaxBackups: logMaxBackup,
		MaxAge:   logMaxAgeDays,
	}
	log := logging.New(logVerbosity, fileLog, logSuppress)
	log.Info(pkg+"starting", "version", version)

	cfg := paramstore.DefaultConfig(log)
	if *configPath != "" {
		loaded, err := paramstore.LoadINI(*configPath, log)
		if err != nil {
			log.Fatal(pkg+"could not load config", "error", err.Error())
		}
		cfg = loaded
	}
	store := paramstore.NewStore(log, cfg)

	var src device.RawSource
	if *live {
		reg := registerio.NewI2C(*i2cBus, byte(*i2cAddr))
		cam := stereocam.New(log, reg)
		if err := cam.Set(stereocam.Config{HelperPath: *helperPath}); err != nil {
			log.Warning(pkg+"camera configuration defaulted", "error", err.Error())
		}
		src = cam
	} else {
		src = playback.New(log, *playPath, recorder.CameraModel(*model), *intervalMs)
	}

	pipeline := disparity.New(log, disparity.Config{
		Source:     src,
		Mode:       device.ShutterManual,
		DecodeMode: disparity.ModeEncoded,
		Matching:   store.Get().Matching,
		Averaging:  store.Get().Averaging,
		Completion: store.Get().Completion,
		Limit:      store.Get().Limit,
	})

	if err := pipeline.Start(); err != nil {
		log.Fatal(pkg+"could not start pipeline", "error", err.Error())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	status := run(pipeline, log, *maxFrames, *statsEvery, sig)

	if err := pipeline.Stop(); err != nil {
		log.Error(pkg+"pipeline stop reported errors", "error", err.Error())
	}
	os.Exit(int(-status))
}

// run polls the pipeline for disparity frames until sig fires, maxFrames is
// reached (if nonzero), or GetDisparity returns an error other than
// StatusNoImage. An exhausted playback source leaves the ring empty, which
// surfaces as StatusNoImage and does not end the loop. It returns the
// disparity.StatusCode that ended the loop.
func run(p *disparity.Pipeline, log logging.Logger, maxFrames, statsEvery int, sig <-chan os.Signal) disparity.StatusCode {
	var frames int
	for {
		select {
		case <-sig:
			log.Info(pkg + "received shutdown signal")
			return disparity.StatusOK
		default:
		}

		if maxFrames > 0 && frames >= maxFrames {
			log.Info(pkg+"reached frame limit", "frames", frames)
			return disparity.StatusOK
		}

		_, err := p.GetDisparity()
		if err != nil {
			if err == disparity.StatusNoImage {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			log.Warning(pkg+"could not process frame", "error", err.Error())
			return err.(disparity.StatusCode)
		}
		frames++

		if statsEvery > 0 && frames%statsEvery == 0 {
			logAreaStats(p, log, frames)
		}
	}
}

func logAreaStats(p *disparity.Pipeline, log logging.Logger, frames int) {
	stats, err := p.GetAreaStatistics(0, 0, 1<<30, 1<<30)
	if err != nil {
		return
	}
	log.Info(pkg+"area statistics", "frame", frames,
		"min", stats.Min, "max", stats.Max, "mean", stats.Mean,
		"stdev", stats.Stdev, "valid", stats.ValidCount)
}
