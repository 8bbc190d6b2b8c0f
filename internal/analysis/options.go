package analysis

import (
	"time"

	"github.com/vanshika/muletrace/internal/config"
	"github.com/vanshika/muletrace/internal/detection"
)

// Options are the detector tunables for one engine.
type Options struct {
	MinCycleLen            int
	MaxCycleLen            int
	OutDegreeCapMultiplier float64
	SmurfWindowHours       int
	SmurfCountThreshold    int
	ShellMinDegree         int
	ShellMaxDegree         int
	ShellMinHops           int
}

// DefaultOptions returns the stock tunables.
func DefaultOptions() Options {
	return Options{
		MinCycleLen:            config.DefaultMinCycleLen,
		MaxCycleLen:            config.DefaultMaxCycleLen,
		OutDegreeCapMultiplier: config.DefaultOutDegreeCapMultiplier,
		SmurfWindowHours:       config.DefaultSmurfWindowHours,
		SmurfCountThreshold:    config.DefaultSmurfCountThreshold,
		ShellMinDegree:         config.DefaultShellMinDegree,
		ShellMaxDegree:         config.DefaultShellMaxDegree,
		ShellMinHops:           config.DefaultShellMinHops,
	}
}

// OptionsFromConfig maps the environment-driven analysis config.
func OptionsFromConfig(cfg config.AnalysisConfig) Options {
	return Options{
		MinCycleLen:            cfg.MinCycleLen,
		MaxCycleLen:            cfg.MaxCycleLen,
		OutDegreeCapMultiplier: cfg.OutDegreeCapMultiplier,
		SmurfWindowHours:       int(cfg.SmurfWindow / time.Hour),
		SmurfCountThreshold:    cfg.SmurfCountThreshold,
		ShellMinDegree:         cfg.ShellMinDegree,
		ShellMaxDegree:         cfg.ShellMaxDegree,
		ShellMinHops:           cfg.ShellMinHops,
	}
}

// detectors builds the detector set in reporting order: cycles, smurfing,
// then shells.
func (o Options) detectors() []detection.Detector {
	return []detection.Detector{
		detection.NewCycleDetector(o.MinCycleLen, o.MaxCycleLen, o.OutDegreeCapMultiplier),
		detection.NewSmurfingDetector(time.Duration(o.SmurfWindowHours)*time.Hour, o.SmurfCountThreshold),
		detection.NewShellDetector(o.ShellMinDegree, o.ShellMaxDegree, o.ShellMinHops),
	}
}
