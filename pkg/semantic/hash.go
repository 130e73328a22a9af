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

import "github.com/cespare/xxhash/v2"

// ContentHash computes the non-cryptographic 64-bit hash used as the AST
// cache key (spec §3, §4.2, §9). xxhash is already present in the
// dependency tree as an indirect pull of prometheus/client_golang; it is
// fast enough to hash every file on every run without becoming the
// bottleneck content-addressed caching is meant to avoid.
func ContentHash(content []byte) uint64 {
	return xxhash.Sum64(content)
}
