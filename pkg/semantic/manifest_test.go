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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCargoTomlCrateNames(t *testing.T) {
	data := []byte(`
[package]
name = "demo"

[dependencies]
serde = "1"
tokio = { version = "1", features = ["full"] }

[dev-dependencies]
proptest = "1"
`)
	crates := parseCargoTomlCrateNames(data)
	assert.Contains(t, crates, "serde")
	assert.Contains(t, crates, "tokio")
	assert.Contains(t, crates, "proptest")
	assert.NotContains(t, crates, "demo")
}

func TestParseCargoTomlCrateNames_MalformedReturnsNil(t *testing.T) {
	crates := parseCargoTomlCrateNames([]byte("not = [ valid toml"))
	assert.Nil(t, crates)
}

func TestParseTSConfigPaths_StripsWildcardAndAppliesBaseURL(t *testing.T) {
	data := []byte(`{
  "compilerOptions": {
    "baseUrl": "src",
    "paths": {
      "@app/*": ["app/*"],
      "@root": ["root-file"]
    }
  }
}`)
	paths, err := parseTSConfigPaths(data)
	require.NoError(t, err)
	assert.Equal(t, "src/app", paths["@app"])
	assert.Equal(t, "src/root-file", paths["@root"])
}

func TestParseTSConfigPaths_NoPathsYieldsEmptyMap(t *testing.T) {
	paths, err := parseTSConfigPaths([]byte(`{"compilerOptions": {}}`))
	require.NoError(t, err)
	assert.Empty(t, paths)
}
