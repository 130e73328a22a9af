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
	"context"
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// languageGrammars maps each supported language to its tree-sitter grammar
// constructor. acquire fails with ErrUnsupportedLanguage for anything not in
// this map (spec §4.1: "Fails only for unknown languages").
var languageGrammars = map[Language]func() *sitter.Language{
	LangGo:         golang.GetLanguage,
	LangPython:     python.GetLanguage,
	LangJavaScript: javascript.GetLanguage,
	LangTypeScript: typescript.GetLanguage,
	LangRust:       rust.GetLanguage,
}

// ParserLeaseToken is an exclusive handle to a pooled parser. Release
// returns it to the idle queue; a token must not be shared across
// concurrent parses (spec §3).
type ParserLeaseToken struct {
	pool     *ParserPool
	lang     Language
	parser   *sitter.Parser
	released bool
}

// Parser exposes the underlying *sitter.Parser for the duration of the
// lease.
func (t *ParserLeaseToken) Parser() *sitter.Parser { return t.parser }

// Release returns the parser to its language's idle queue. Safe to call
// more than once; only the first call has effect.
func (t *ParserLeaseToken) Release() {
	if t.released {
		return
	}
	t.released = true
	t.pool.release(t.lang, t.parser)
}

// ParseCtx runs the lease's parser with the pool's per-parse timeout
// applied, whether or not the caller already passed a context deadline
// (the tighter of the two wins). This satisfies spec §4.1's "enforced by
// the parser itself when supported; otherwise by an outer wall-clock
// check" — go-tree-sitter honors context cancellation directly, so the
// same mechanism serves both cases.
func (t *ParserLeaseToken) ParseCtx(ctx context.Context, oldTree *sitter.Tree, content []byte) (*sitter.Tree, error) {
	ctx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()

	tree, err := t.parser.ParseCtx(ctx, oldTree, content)
	if err != nil {
		if ctx.Err() != nil {
			t.pool.metrics.poolParseTimeout.WithLabelValues(string(t.lang)).Inc()
			return nil, fmt.Errorf("%w: %s", ErrParseTimeout, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrParse, err)
	}
	if tree == nil {
		// ParseCtx returns (nil, nil) on cancellation in some tree-sitter
		// bindings; treat that as a timeout rather than a silent empty tree.
		t.pool.metrics.poolParseTimeout.WithLabelValues(string(t.lang)).Inc()
		return nil, ErrParseTimeout
	}
	return tree, nil
}

// languagePool is the per-language idle queue plus live count.
type languagePool struct {
	mu    sync.Mutex
	idle  []*sitter.Parser
	live  int
	alloc func() *sitter.Parser
}

// ParserPool is a process-wide collection of parser instances partitioned
// by language (spec §4.1). It grows to the concurrency level observed and
// never shrinks during a run; it is not a semaphore with a hard cap.
type ParserPool struct {
	mu      sync.Mutex
	byLang  map[Language]*languagePool
	logger  *slog.Logger
	metrics *metrics
}

// NewParserPool creates an empty pool. Parsers are allocated lazily on
// first acquire per language.
func NewParserPool(logger *slog.Logger, m *metrics) *ParserPool {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = noopMetrics()
	}
	return &ParserPool{
		byLang:  make(map[Language]*languagePool),
		logger:  logger,
		metrics: m,
	}
}

func (p *ParserPool) langPool(lang Language) (*languagePool, error) {
	grammar, ok := languageGrammars[lang]
	if !ok {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	lp, ok := p.byLang[lang]
	if !ok {
		lp = &languagePool{
			alloc: func() *sitter.Parser {
				parser := sitter.NewParser()
				parser.SetLanguage(grammar())
				return parser
			},
		}
		p.byLang[lang] = lp
	}
	return lp, nil
}

// Acquire returns an exclusive lease on a parser for lang, allocating one if
// no idle parser is available. Non-blocking: it never waits on another
// goroutine. Fails only when lang has no registered grammar.
func (p *ParserPool) Acquire(lang Language) (*ParserLeaseToken, error) {
	lp, err := p.langPool(lang)
	if err != nil {
		return nil, err
	}
	if lp == nil {
		p.metrics.poolAcquireTotal.WithLabelValues(string(lang), "unsupported").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}

	lp.mu.Lock()
	var parser *sitter.Parser
	n := len(lp.idle)
	if n > 0 {
		parser = lp.idle[n-1]
		lp.idle = lp.idle[:n-1]
	} else {
		parser = lp.alloc()
		lp.live++
	}
	live, idle := lp.live, len(lp.idle)
	lp.mu.Unlock()

	p.metrics.poolAcquireTotal.WithLabelValues(string(lang), "ok").Inc()
	p.metrics.poolLiveParsers.WithLabelValues(string(lang)).Set(float64(live))
	p.metrics.poolIdleParsers.WithLabelValues(string(lang)).Set(float64(idle))

	return &ParserLeaseToken{pool: p, lang: lang, parser: parser}, nil
}

func (p *ParserPool) release(lang Language, parser *sitter.Parser) {
	lp, _ := p.langPool(lang)
	if lp == nil {
		return
	}
	lp.mu.Lock()
	lp.idle = append(lp.idle, parser)
	idle := len(lp.idle)
	lp.mu.Unlock()
	p.metrics.poolIdleParsers.WithLabelValues(string(lang)).Set(float64(idle))
}

// SupportedLanguages reports every language this pool can acquire a parser
// for.
func SupportedLanguages() []Language {
	langs := make([]Language, 0, len(languageGrammars))
	for l := range languageGrammars {
		langs = append(langs, l)
	}
	return langs
}
