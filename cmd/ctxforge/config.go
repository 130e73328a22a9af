// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/ctxforge/internal/errors"
)

const (
	defaultConfigDir  = ".ctxforge"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config represents the .ctxforge/project.yaml configuration file. Most
// fields have a CLI flag that overrides them for a single run; Version has
// none, and --include/--ignore add to the configured globs rather than
// replacing them.
type Config struct {
	Version string         `yaml:"version"`
	Walk    WalkConfig     `yaml:"walk"`
	Select  SelectConfig   `yaml:"select"`
	Output  OutputConfig   `yaml:"output"`
	Rust    RustConfig     `yaml:"rust,omitempty"`
	TS      TypeScriptConf `yaml:"typescript,omitempty"`
}

// WalkConfig controls pkg/walker's file collection.
type WalkConfig struct {
	Include []string `yaml:"include,omitempty"`
	Ignore  []string `yaml:"ignore,omitempty"`
}

// SelectConfig controls the post-analysis selection-expansion flags named
// in spec.md §6.
type SelectConfig struct {
	TraceImports   bool   `yaml:"trace_imports"`
	IncludeTypes   bool   `yaml:"include_types"`
	IncludeCallers bool   `yaml:"include_callers"`
	SemanticDepth  uint32 `yaml:"semantic_depth"`
}

// OutputConfig selects the render format.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// RustConfig points at the Cargo.toml used to classify external crates.
type RustConfig struct {
	ManifestPath string `yaml:"manifest_path,omitempty"`
}

// TypeScriptConf points at the tsconfig.json used for path-mapping.
type TypeScriptConf struct {
	ConfigPath string `yaml:"config_path,omitempty"`
}

// DefaultConfig returns spec.md §3's documented selection/analysis defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Select: SelectConfig{
			TraceImports:  true,
			SemanticDepth: 3,
		},
		Output: OutputConfig{Format: "markdown"},
	}
}

// LoadConfig loads .ctxforge/project.yaml from configPath, or discovers it
// by walking up from the current directory. A missing config is not an
// error: DefaultConfig is returned instead, mirroring the teacher's
// tolerant LoadConfig-falls-back-to-DefaultConfig pattern in cmd/cie/serve.go.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		found, err := findConfigFile()
		if err != nil {
			return DefaultConfig(), nil
		}
		configPath = found
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path comes from user config or discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or delete it to use defaults", configPath),
			err,
		)
	}
	if cfg.Version != "" && cfg.Version != configVersion {
		return nil, errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version %q is not supported (expected %q)", cfg.Version, configVersion),
			"Update the version field or regenerate the configuration file",
			nil,
		)
	}
	return cfg, nil
}

// ConfigPath returns <dir>/.ctxforge/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := ConfigPath(dir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("no %s/%s found", defaultConfigDir, defaultConfigFile)
}
