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

import "github.com/prometheus/client_golang/prometheus"

// metrics groups the engine's prometheus instrumentation. noopMetrics
// builds the same collectors without registering them anywhere, so callers
// that don't want metrics can skip registration entirely. The methods do not
// check for nil collectors; a zero-value metrics is not usable.
type metrics struct {
	poolLiveParsers  *prometheus.GaugeVec
	poolIdleParsers  *prometheus.GaugeVec
	poolAcquireTotal *prometheus.CounterVec
	poolParseTimeout *prometheus.CounterVec

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	cacheSize      prometheus.Gauge

	typeResolutionTruncated *prometheus.CounterVec
	cyclesDetected          prometheus.Counter
}

// NewMetrics creates and registers the engine's collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests, multiple engine
// instances in one process) or prometheus.DefaultRegisterer to expose them
// on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		poolLiveParsers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ctxforge_semantic_pool_live_parsers",
			Help: "Number of parser instances currently allocated, by language.",
		}, []string{"language"}),
		poolIdleParsers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ctxforge_semantic_pool_idle_parsers",
			Help: "Number of parser instances currently idle in the pool, by language.",
		}, []string{"language"}),
		poolAcquireTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctxforge_semantic_pool_acquire_total",
			Help: "Total parser pool acquisitions, by language and outcome.",
		}, []string{"language", "outcome"}),
		poolParseTimeout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctxforge_semantic_parse_timeout_total",
			Help: "Total parses that exceeded the per-parse timeout, by language.",
		}, []string{"language"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxforge_semantic_ast_cache_hits_total",
			Help: "AST cache lookups that found a live syntax tree.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxforge_semantic_ast_cache_misses_total",
			Help: "AST cache lookups that triggered a parse.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxforge_semantic_ast_cache_evictions_total",
			Help: "Entries evicted from the AST cache to respect its capacity bound.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ctxforge_semantic_ast_cache_size",
			Help: "Current number of syntax trees resident in the AST cache.",
		}),
		typeResolutionTruncated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctxforge_semantic_type_resolution_truncated_total",
			Help: "Type resolutions aborted by a circuit breaker, by breaker kind.",
		}, []string{"breaker"}),
		cyclesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctxforge_semantic_cycles_detected_total",
			Help: "Dependency cycles (SCCs of size >= 2, plus self-loops) detected per graph build.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{
			m.poolLiveParsers, m.poolIdleParsers, m.poolAcquireTotal, m.poolParseTimeout,
			m.cacheHits, m.cacheMisses, m.cacheEvictions, m.cacheSize,
			m.typeResolutionTruncated, m.cyclesDetected,
		} {
			reg.MustRegister(c)
		}
	}
	return m
}

// noopMetrics returns a metrics instance that is never registered; every
// call still succeeds (prometheus collectors are safe to use unregistered).
func noopMetrics() *metrics {
	return NewMetrics(nil)
}
