// Package system applies Go runtime tuning at startup.
package system

import (
	"runtime"
	"runtime/debug"

	"github.com/alejoacosta74/kafka-publisher/internal/config"
	"github.com/alejoacosta74/kafka-publisher/internal/logger"
)

// Settings holds runtime tuning. Zero fields leave the runtime default in place.
type Settings struct {
	MaxProcs      int
	GCPercent     int
	MemoryLimitMB int
	logger        *logger.Logger
}

// FromConfig builds Settings from the system section.
func FromConfig(c config.SystemConfig) *Settings {
	return &Settings{
		MaxProcs:      c.MaxProcs,
		GCPercent:     c.GCPercent,
		MemoryLimitMB: c.MemoryLimitMB,
		logger:        logger.WithField("component", "system_settings"),
	}
}

// Apply configures the runtime and reports which settings were changed.
func (s *Settings) Apply() []string {
	var applied []string

	if s.MaxProcs > 0 {
		runtime.GOMAXPROCS(s.MaxProcs)
		s.logger.Infof("GOMAXPROCS set to %d", s.MaxProcs)
		applied = append(applied, "maxprocs")
	}

	if s.GCPercent != 0 {
		debug.SetGCPercent(s.GCPercent)
		s.logger.Infof("GC percent set to %d", s.GCPercent)
		applied = append(applied, "gcpercent")
	}

	if s.MemoryLimitMB > 0 {
		debug.SetMemoryLimit(int64(s.MemoryLimitMB) * 1024 * 1024)
		s.logger.Infof("Memory limit set to %dMB", s.MemoryLimitMB)
		applied = append(applied, "memorylimit")
	}

	return applied
}
