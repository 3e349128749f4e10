/*
   Copyright 2022 Erigon contributors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package metrics exports the handful of counters the engine's components
// touch, following the same global-counter pattern used for MDBX page-op
// counters elsewhere in this codebase (package-level vars registered with
// VictoriaMetrics on import, no constructor needed).
package metrics

import "github.com/VictoriaMetrics/metrics"

var (
	PagesFetched     = metrics.NewCounter(`fdb_range_pages_fetched_total`)
	PagesRefetched   = metrics.NewCounter(`fdb_range_pages_refetched_total`)
	CursorsOpened    = metrics.NewCounter(`fdb_cursors_opened_total`)
	CursorsDisposed  = metrics.NewCounter(`fdb_cursors_disposed_total`)
	SetOpTerminated  = metrics.NewCounter(`fdb_setop_terminated_total`)
	FaultsRaised     = metrics.NewCounter(`fdb_faults_raised_total`)
	CancellationsHit = metrics.NewCounter(`fdb_cancellations_total`)
)

// FaultByKind returns (and lazily registers) a per-kind fault counter,
// mirroring the label-suffixed counter pattern (`db_gc_seconds{phase="..."}`)
// used throughout this codebase's metrics rather than a single unlabeled
// counter.
func FaultByKind(kind string) *metrics.Counter {
	return metrics.GetOrCreateCounter(`fdb_faults_raised_total{kind="` + kind + `"}`)
}
