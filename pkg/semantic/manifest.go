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

package semantic

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
)

// cargoManifest mirrors just the dependency tables of a Cargo.toml that C4's
// Rust resolver needs to classify external crates (spec §4.4).
type cargoManifest struct {
	Dependencies      map[string]interface{} `toml:"dependencies"`
	DevDependencies   map[string]interface{} `toml:"dev-dependencies"`
	BuildDependencies map[string]interface{} `toml:"build-dependencies"`
}

func parseCargoTomlCrateNames(data []byte) map[string]struct{} {
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil
	}
	crates := make(map[string]struct{})
	for _, tbl := range []map[string]interface{}{m.Dependencies, m.DevDependencies, m.BuildDependencies} {
		for name := range tbl {
			crates[name] = struct{}{}
		}
	}
	return crates
}

// tsconfig mirrors just the compilerOptions.paths mapping a TypeScript
// project declares (spec §9's tsconfig open question).
type tsconfig struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// parseTSConfigPaths resolves each alias (e.g. "@app/*") to its first
// redirect target (e.g. "src/app/*"), stripping the trailing "/*" glob
// segment both sides share; bare aliases with no wildcard are passed
// through unchanged.
func parseTSConfigPaths(data []byte) (map[string]string, error) {
	var cfg tsconfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(cfg.CompilerOptions.Paths))
	for alias, targets := range cfg.CompilerOptions.Paths {
		if len(targets) == 0 {
			continue
		}
		target := targets[0]
		aliasPrefix := trimWildcard(alias)
		targetPrefix := trimWildcard(target)
		base := cfg.CompilerOptions.BaseURL
		if base != "" {
			targetPrefix = base + "/" + targetPrefix
		}
		out[aliasPrefix] = targetPrefix
	}
	return out, nil
}

func trimWildcard(s string) string {
	if len(s) >= 2 && s[len(s)-2:] == "/*" {
		return s[:len(s)-2]
	}
	if len(s) >= 1 && s[len(s)-1] == '*' {
		return s[:len(s)-1]
	}
	return s
}
