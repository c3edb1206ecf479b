/*
DESCRIPTION
  ini.go persists a Config to and from an INI file, using gopkg.in/ini.v1
  keyed by the same Variables names used for string-based updates, so a
  saved file round-trips byte-exactly through a Load/Save pair.

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

	"github.com/pkg/errors"
	"github.com/ausocean/utils/logging"
	ini "gopkg.in/ini.v1"
)

// section is the single INI section all parameters are written under.
const section = "disparity"

// toStrings renders cfg's fields into their canonical Variables-keyed string
// form, the same form accepted by Config.Update.
func toStrings(cfg Config) map[string]string {
	m := cfg.Matching
	bm := cfg.BackMatching
	av := cfg.Averaging
	cp := cfg.Completion
	lim := cfg.Limit

	return map[string]string{
		KeyDepth:   strconv.Itoa(m.Depth),
		KeyBlkH:    strconv.Itoa(m.BlkH),
		KeyBlkW:    strconv.Itoa(m.BlkW),
		KeyMtcH:    strconv.Itoa(m.MtcH),
		KeyMtcW:    strconv.Itoa(m.MtcW),
		KeyCrstThr: strconv.FormatInt(int64(m.CrstThr), 10),

		KeyBackMatchEnabled: strconv.FormatBool(bm.Enabled),
		KeyEvalWidth:        strconv.Itoa(bm.EvalWidth),
		KeyEvalRange:        strconv.FormatInt(int64(bm.EvalRange), 10),
		KeyValidRatioPct:    strconv.Itoa(bm.ValidRatioPct),
		KeyZeroRatioPct:     strconv.Itoa(bm.ZeroRatioPct),

		KeyAvgEnabled:       strconv.FormatBool(av.Enabled),
		KeyWinH:             strconv.Itoa(av.WinH),
		KeyWinW:             strconv.Itoa(av.WinW),
		KeyIntegRangeQ10:    strconv.FormatInt(int64(av.IntegRangeQ10), 10),
		KeyLimitRangeQ10:    strconv.FormatInt(int64(av.LimitRangeQ10), 10),
		KeyDispRatioPct:     strconv.Itoa(av.DispRatioPct),
		KeyAvgValidRatioPct: strconv.Itoa(av.ValidRatioPct),
		KeyReplaceRatioPct:  strconv.Itoa(av.ReplaceRatioPct),
		KeyWeightCenter:     strconv.Itoa(av.Weights.Center),
		KeyWeightNear:       strconv.Itoa(av.Weights.Near),
		KeyWeightRound:      strconv.Itoa(av.Weights.Round),

		KeyCompEnabled: strconv.FormatBool(cp.Enabled),
		KeyLowLimitPx:  strconv.FormatInt(int64(cp.LowLimitPx), 10),
		KeySlopeLimit:  strconv.FormatFloat(cp.SlopeLimit, 'g', -1, 64),
		KeyRatioInside: strconv.Itoa(cp.PixelRatios.Inside),
		KeyRatioRound:  strconv.Itoa(cp.PixelRatios.Round),
		KeyRatioBottom: strconv.Itoa(cp.PixelRatios.Bottom),
		KeyContrastLim: strconv.FormatInt(int64(cp.ContrastLim), 10),
		KeyHoleFill:    strconv.FormatBool(cp.HoleFill),
		KeyHoleSizePx:  strconv.FormatInt(int64(cp.HoleSizePx), 10),

		KeyLimitEnabled: strconv.FormatBool(lim.Enabled),
		KeyLimitLower:   strconv.FormatInt(int64(lim.LowerQ10), 10),
		KeyLimitUpper:   strconv.FormatInt(int64(lim.UpperQ10), 10),
	}
}

// SaveINI writes cfg to path as an INI file under a single "disparity"
// section, one key per Variables entry.
func SaveINI(path string, cfg Config) error {
	f := ini.Empty()
	sec, err := f.NewSection(section)
	if err != nil {
		return errors.Wrap(err, "paramstore: could not create ini section")
	}
	// Keys are written in Variables order so that saving the same Config
	// always yields the same bytes.
	vals := toStrings(cfg)
	for _, v := range Variables {
		val, ok := vals[v.Name]
		if !ok {
			continue
		}
		if _, err := sec.NewKey(v.Name, val); err != nil {
			return errors.Wrapf(err, "paramstore: could not set ini key %q", v.Name)
		}
	}
	if err := f.SaveTo(path); err != nil {
		return errors.Wrap(err, "paramstore: could not save ini file")
	}
	return nil
}

// LoadINI reads an INI file previously written by SaveINI (or hand-edited
// with the same keys) and returns the resulting Config, defaulted and
// validated.
func LoadINI(path string, l logging.Logger) (Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "paramstore: could not load ini file")
	}
	sec, err := f.GetSection(section)
	if err != nil {
		return Config{}, errors.Wrapf(err, "paramstore: missing section %q", section)
	}

	vars := make(map[string]string)
	for _, key := range sec.Keys() {
		vars[key.Name()] = key.Value()
	}
	if len(vars) == 0 {
		return Config{}, fmt.Errorf("paramstore: %s has no keys under section %q", path, section)
	}

	cfg := Config{Logger: l}
	cfg.Update(vars)
	cfg.Validate()
	return cfg, nil
}
