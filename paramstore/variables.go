/*
DESCRIPTION
  variables.go defines Config, the aggregate of all tunable stage
  parameters, and Variables, a table of {Name, Type, Update, Validate}
  entries driving string-keyed updates and defaulting.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package paramstore

import (
	"fmt"
	"strconv"

	"github.com/ausocean/utils/logging"
)

// Config map parameter type tags.
const (
	typeInt   = "int"
	typeFloat = "float"
	typeBool  = "bool"
)

// Config map keys.
const (
	KeyDepth     = "Depth"
	KeyBlkH      = "BlkH"
	KeyBlkW      = "BlkW"
	KeyMtcH      = "MtcH"
	KeyMtcW      = "MtcW"
	KeyCrstThr   = "CrstThr"
	KeyCrstOfs   = "CrstOfs"

	KeyBackMatchEnabled = "BackMatchEnabled"
	KeyEvalWidth        = "EvalWidth"
	KeyEvalRange        = "EvalRange"
	KeyValidRatioPct    = "ValidRatioPct"
	KeyZeroRatioPct     = "ZeroRatioPct"

	KeyAvgEnabled       = "AvgEnabled"
	KeyWinH             = "WinH"
	KeyWinW             = "WinW"
	KeyIntegRangeQ10    = "IntegRangeQ10"
	KeyLimitRangeQ10    = "LimitRangeQ10"
	KeyDispRatioPct     = "DispRatioPct"
	KeyAvgValidRatioPct = "AvgValidRatioPct"
	KeyReplaceRatioPct  = "ReplaceRatioPct"
	KeyWeightCenter     = "WeightCenter"
	KeyWeightNear       = "WeightNear"
	KeyWeightRound      = "WeightRound"

	KeyCompEnabled  = "CompEnabled"
	KeyLowLimitPx   = "LowLimitPx"
	KeySlopeLimit   = "SlopeLimit"
	KeyRatioInside  = "RatioInside"
	KeyRatioRound   = "RatioRound"
	KeyRatioBottom  = "RatioBottom"
	KeyContrastLim  = "ContrastLim"
	KeyHoleFill     = "HoleFill"
	KeyHoleSizePx   = "HoleSizePx"

	KeyLimitEnabled = "LimitEnabled"
	KeyLimitLower   = "LimitLower"
	KeyLimitUpper   = "LimitUpper"
)

// Config is the aggregate of every tunable stage parameter, double-buffered
// by Store between frame boundaries.
type Config struct {
	Logger logging.Logger

	Matching     MatchingParameters
	BackMatching BackMatchingParameters
	Averaging    AveragingParameters
	Completion   CompletionParameters
	Limit        DisparityLimit
}

// DefaultConfig returns a Config built from each stage's documented
// defaults.
func DefaultConfig(l logging.Logger) Config {
	return Config{
		Logger:       l,
		Matching:     DefaultMatching(),
		BackMatching: DefaultBackMatching(),
		Averaging:    DefaultAveraging(),
		Completion:   DefaultCompletion(),
	}
}

func (c *Config) logInvalidField(name string, def interface{}) {
	if c.Logger != nil {
		c.Logger.Info(name+" bad or unset, defaulting", name, def)
	}
}

func parseInt(name, v string, c *Config) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		c.logInvalidField(name, 0)
		return 0
	}
	return n
}

func parseInt32(name, v string, c *Config) int32 {
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		c.logInvalidField(name, 0)
		return 0
	}
	return int32(n)
}

func parseFloat(name, v string, c *Config) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.logInvalidField(name, 0.0)
		return 0
	}
	return f
}

func parseBool(name, v string, c *Config) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.logInvalidField(name, false)
		return false
	}
	return b
}

// Variables describes every key the pipeline accepts via Store.Set or an INI
// file, with a function to parse and apply a string value into a Config and
// an optional function to default an invalid field after update.
var Variables = []struct {
	Name     string
	Module   string
	Type     string
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{Name: KeyDepth, Module: "Matching", Type: typeInt, Update: func(c *Config, v string) { c.Matching.Depth = parseInt(KeyDepth, v, c) },
		Validate: func(c *Config) {
			if c.Matching.Depth <= 0 {
				c.logInvalidField(KeyDepth, 32)
				c.Matching.Depth = 32
			}
		}},
	{Name: KeyBlkH, Module: "Matching", Type: typeInt, Update: func(c *Config, v string) { c.Matching.BlkH = parseInt(KeyBlkH, v, c) },
		Validate: func(c *Config) {
			if c.Matching.BlkH <= 0 {
				c.logInvalidField(KeyBlkH, 4)
				c.Matching.BlkH = 4
			}
		}},
	{Name: KeyBlkW, Module: "Matching", Type: typeInt, Update: func(c *Config, v string) { c.Matching.BlkW = parseInt(KeyBlkW, v, c) },
		Validate: func(c *Config) {
			if c.Matching.BlkW <= 0 {
				c.logInvalidField(KeyBlkW, 4)
				c.Matching.BlkW = 4
			}
		}},
	{Name: KeyMtcH, Module: "Matching", Type: typeInt, Update: func(c *Config, v string) { c.Matching.MtcH = parseInt(KeyMtcH, v, c) }},
	{Name: KeyMtcW, Module: "Matching", Type: typeInt, Update: func(c *Config, v string) { c.Matching.MtcW = parseInt(KeyMtcW, v, c) }},
	{Name: KeyCrstThr, Module: "Matching", Type: typeInt, Update: func(c *Config, v string) { c.Matching.CrstThr = parseInt32(KeyCrstThr, v, c) }},

	{Name: KeyBackMatchEnabled, Module: "BackMatching", Type: typeBool, Update: func(c *Config, v string) { c.BackMatching.Enabled = parseBool(KeyBackMatchEnabled, v, c) }},
	{Name: KeyEvalWidth, Module: "BackMatching", Type: typeInt, Update: func(c *Config, v string) { c.BackMatching.EvalWidth = parseInt(KeyEvalWidth, v, c) }},
	{Name: KeyEvalRange, Module: "BackMatching", Type: typeInt, Update: func(c *Config, v string) { c.BackMatching.EvalRange = parseInt32(KeyEvalRange, v, c) }},
	{Name: KeyValidRatioPct, Module: "BackMatching", Type: typeInt, Update: func(c *Config, v string) { c.BackMatching.ValidRatioPct = parseInt(KeyValidRatioPct, v, c) }},
	{Name: KeyZeroRatioPct, Module: "BackMatching", Type: typeInt, Update: func(c *Config, v string) { c.BackMatching.ZeroRatioPct = parseInt(KeyZeroRatioPct, v, c) }},

	{Name: KeyAvgEnabled, Module: "Averaging", Type: typeBool, Update: func(c *Config, v string) { c.Averaging.Enabled = parseBool(KeyAvgEnabled, v, c) }},
	{Name: KeyWinH, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.WinH = parseInt(KeyWinH, v, c) }},
	{Name: KeyWinW, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.WinW = parseInt(KeyWinW, v, c) }},
	{Name: KeyIntegRangeQ10, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.IntegRangeQ10 = parseInt32(KeyIntegRangeQ10, v, c) }},
	{Name: KeyLimitRangeQ10, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.LimitRangeQ10 = parseInt32(KeyLimitRangeQ10, v, c) }},
	{Name: KeyDispRatioPct, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.DispRatioPct = parseInt(KeyDispRatioPct, v, c) }},
	{Name: KeyAvgValidRatioPct, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.ValidRatioPct = parseInt(KeyAvgValidRatioPct, v, c) }},
	{Name: KeyReplaceRatioPct, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.ReplaceRatioPct = parseInt(KeyReplaceRatioPct, v, c) }},
	{Name: KeyWeightCenter, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.Weights.Center = parseInt(KeyWeightCenter, v, c) }},
	{Name: KeyWeightNear, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.Weights.Near = parseInt(KeyWeightNear, v, c) }},
	{Name: KeyWeightRound, Module: "Averaging", Type: typeInt, Update: func(c *Config, v string) { c.Averaging.Weights.Round = parseInt(KeyWeightRound, v, c) }},

	{Name: KeyCompEnabled, Module: "Completion", Type: typeBool, Update: func(c *Config, v string) { c.Completion.Enabled = parseBool(KeyCompEnabled, v, c) }},
	{Name: KeyLowLimitPx, Module: "Completion", Type: typeInt, Update: func(c *Config, v string) { c.Completion.LowLimitPx = parseInt32(KeyLowLimitPx, v, c) }},
	{Name: KeySlopeLimit, Module: "Completion", Type: typeFloat, Update: func(c *Config, v string) { c.Completion.SlopeLimit = parseFloat(KeySlopeLimit, v, c) }},
	{Name: KeyRatioInside, Module: "Completion", Type: typeInt, Update: func(c *Config, v string) { c.Completion.PixelRatios.Inside = parseInt(KeyRatioInside, v, c) }},
	{Name: KeyRatioRound, Module: "Completion", Type: typeInt, Update: func(c *Config, v string) { c.Completion.PixelRatios.Round = parseInt(KeyRatioRound, v, c) }},
	{Name: KeyRatioBottom, Module: "Completion", Type: typeInt, Update: func(c *Config, v string) { c.Completion.PixelRatios.Bottom = parseInt(KeyRatioBottom, v, c) }},
	{Name: KeyContrastLim, Module: "Completion", Type: typeInt, Update: func(c *Config, v string) { c.Completion.ContrastLim = parseInt32(KeyContrastLim, v, c) }},
	{Name: KeyHoleFill, Module: "Completion", Type: typeBool, Update: func(c *Config, v string) { c.Completion.HoleFill = parseBool(KeyHoleFill, v, c) }},
	{Name: KeyHoleSizePx, Module: "Completion", Type: typeInt, Update: func(c *Config, v string) { c.Completion.HoleSizePx = parseInt32(KeyHoleSizePx, v, c) }},

	{Name: KeyLimitEnabled, Module: "Limit", Type: typeBool, Update: func(c *Config, v string) { c.Limit.Enabled = parseBool(KeyLimitEnabled, v, c) }},
	{Name: KeyLimitLower, Module: "Limit", Type: typeInt, Update: func(c *Config, v string) { c.Limit.LowerQ10 = parseInt32(KeyLimitLower, v, c) }},
	{Name: KeyLimitUpper, Module: "Limit", Type: typeInt, Update: func(c *Config, v string) { c.Limit.UpperQ10 = parseInt32(KeyLimitUpper, v, c) }},
}

// Update parses and applies every key present in vars, leaving unmentioned
// fields untouched.
func (c *Config) Update(vars map[string]string) {
	for _, variable := range Variables {
		if v, ok := vars[variable.Name]; ok && variable.Update != nil {
			variable.Update(c, v)
		}
	}
}

// Validate defaults any field left in an invalid state after Update.
func (c *Config) Validate() {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}
}

// moduleNames enumerates the tunable parameter groups, in a fixed order,
// each backed by a disjoint slice of Variables.
var moduleNames = []string{"Matching", "BackMatching", "Averaging", "Completion", "Limit"}

// ModuleCount returns the number of tunable parameter modules.
func ModuleCount() int { return len(moduleNames) }

// ModuleName returns the name of the module at moduleIndex.
func ModuleName(moduleIndex int) (string, error) {
	if moduleIndex < 0 || moduleIndex >= len(moduleNames) {
		return "", fmt.Errorf("paramstore: module index %d out of range [0,%d)", moduleIndex, len(moduleNames))
	}
	return moduleNames[moduleIndex], nil
}
