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

// Package conf defines the configuration surface of the analysis service:
// input/output paths, abstract-index selection, and the ambient logging/
// transport settings layered in around the core per §10.3.
package conf

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the top-level configuration for one analysis run or server.
type Config struct {
	// DestPath is the root output directory for emitted artifacts.
	DestPath string `yaml:"dest_path"`

	// InputPath is the root directory containing compiled contract artifacts
	// and diff files.
	InputPath string `yaml:"input_path"`

	// Timeout is the global wall-clock analysis budget in seconds. Checked at
	// every interpreter opcode step.
	Timeout int `yaml:"timeout"`

	// Debug is passed to report.Writer and enables its WriteDot export; the
	// analysis services do not call WriteDot, so no .dot artifact is written
	// by an analysis request.
	Debug bool `yaml:"debug"`

	// ASTAbstracts, CFGAbstracts, SSGAbstracts select which registered
	// abstract indices run over each artifact kind.
	ASTAbstracts []string `yaml:"ast_abstracts"`
	CFGAbstracts []string `yaml:"cfg_abstracts"`
	SSGAbstracts []string `yaml:"ssg_abstracts"`

	// Tags enables loading a sibling skills_tag.yaml catalog for tag_src.
	Tags bool `yaml:"tags"`

	// Logger configures the leveled logger.
	Logger LoggerConfig `yaml:"logger"`

	// ListenAddr is the address the RPC HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// RequestTimeout bounds a single RPC handler invocation, independent of
	// the interpreter's own Timeout budget.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// DefaultConfig returns the out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		DestPath:       "./out",
		InputPath:      "./in",
		Timeout:        20000,
		Debug:          false,
		ASTAbstracts:   []string{"sequence_src", "selection_src", "loop_src"},
		CFGAbstracts:   []string{"sequence_bin", "loop_bin"},
		SSGAbstracts:   []string{"data_flow", "control_flow"},
		Tags:           false,
		Logger:         DefaultLoggerConfig(),
		ListenAddr:     "127.0.0.1:8645",
		RequestTimeout: 30 * time.Minute,
	}
}

// Validate clamps or rejects invalid configuration.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		c.Timeout = 20000
	}
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8645"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Minute
	}
	return c.Logger.Validate()
}

// Load reads and validates a YAML config file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
