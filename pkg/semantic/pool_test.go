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

func TestParserPool_AcquireReleaseReusesParser(t *testing.T) {
	p := NewParserPool(nil, nil)

	tok, err := p.Acquire(LangGo)
	require.NoError(t, err)
	parser := tok.Parser()
	tok.Release()

	tok2, err := p.Acquire(LangGo)
	require.NoError(t, err)
	assert.Same(t, parser, tok2.Parser(), "a released parser should be handed back out rather than a fresh one allocated")
}

func TestParserPool_GrowsUnderConcurrentDemand(t *testing.T) {
	p := NewParserPool(nil, nil)

	tok1, err := p.Acquire(LangGo)
	require.NoError(t, err)
	tok2, err := p.Acquire(LangGo)
	require.NoError(t, err)

	assert.NotSame(t, tok1.Parser(), tok2.Parser(), "two live leases held at once must be distinct parsers")

	lp, _ := p.langPool(LangGo)
	assert.Equal(t, 2, lp.live)

	tok1.Release()
	tok2.Release()
	assert.Len(t, lp.idle, 2, "the pool never shrinks on release, it just returns parsers to idle")
}

func TestParserPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewParserPool(nil, nil)
	tok, err := p.Acquire(LangGo)
	require.NoError(t, err)

	tok.Release()
	tok.Release()

	lp, _ := p.langPool(LangGo)
	assert.Len(t, lp.idle, 1, "a double Release must not double-return the same parser")
}

func TestParserPool_UnsupportedLanguageFails(t *testing.T) {
	p := NewParserPool(nil, nil)
	_, err := p.Acquire(Language("cobol"))
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestParserPool_SupportedLanguagesCoversAllGrammars(t *testing.T) {
	langs := SupportedLanguages()
	assert.Len(t, langs, len(languageGrammars))
	assert.Contains(t, langs, LangGo)
	assert.Contains(t, langs, LangRust)
}
