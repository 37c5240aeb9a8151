// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"io"
	"log/slog"

	"github.com/relabs-tech/gyro_bias/internal/config"
	"github.com/relabs-tech/gyro_bias/internal/logging"
)

// NewLogger builds the component logger from the LOG_* settings.
func NewLogger(cfg *config.Config, component string) (*slog.Logger, io.Closer) {
	return logging.New(component, logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
}
