// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package conf

// LoggerConfig configures the leveled logger in package log.
//
// Rotation policy:
//   - a file exceeding MaxSize MB is rotated to a timestamped backup
//   - backups beyond MaxBackups or older than MaxAge days are deleted
//   - Compress gzips rotated backups
type LoggerConfig struct {
	// LogFile is the log file path. Empty means console-only output.
	LogFile string `json:"name" yaml:"name"`

	// Level is one of trace, debug, info, warn, error, fatal.
	Level string `json:"level" yaml:"level"`

	// MaxSize is the per-file size cap in MB before rotation.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// MaxBackups is the number of rotated files retained. 0 means unlimited.
	MaxBackups int `json:"max_count" yaml:"max_count"`

	// MaxAge is the retention period in days. 0 means unlimited.
	MaxAge int `json:"max_day" yaml:"max_day"`

	// Compress gzips rotated backups.
	Compress bool `json:"compress" yaml:"compress"`

	// TotalSizeCap is the total log directory size cap in MB; 0 disables it.
	TotalSizeCap int `json:"total_size_cap" yaml:"total_size_cap"`

	// LocalTime names rotated backups using local time instead of UTC.
	LocalTime bool `json:"local_time" yaml:"local_time"`

	// Console additionally writes to stdout even when LogFile is set.
	Console bool `json:"console" yaml:"console"`

	// JSONFormat writes file output as JSON instead of text.
	JSONFormat bool `json:"json_format" yaml:"json_format"`
}

// DefaultLoggerConfig returns sane defaults for console-only development use.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		LogFile:      "",
		Level:        "info",
		MaxSize:      100,
		MaxBackups:   10,
		MaxAge:       30,
		Compress:     true,
		TotalSizeCap: 0,
		LocalTime:    true,
		Console:      true,
		JSONFormat:   true,
	}
}

// Validate clamps invalid field values to their defaults.
func (c *LoggerConfig) Validate() error {
	if c.MaxSize <= 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups < 0 {
		c.MaxBackups = 10
	}
	if c.MaxAge < 0 {
		c.MaxAge = 30
	}
	return nil
}
