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

// Package iter is the Operator Pipeline (component E): a minimal lazy
// sequence algebra - Select, Where, Take, Skip, Distinct, ToSlice - on top
// of any pull-based cursor. Operators compose without materializing
// intermediate collections; ToSlice is the only materializing sink.
//
// Naming follows this codebase's own top-level iter package (iter.KV is a
// "high-level simplified api for iteration over Table, InvertedIndex,
// History, Domain"): Seq plays that role here, generic over the element
// type instead of being hard-coded to (key,value) pairs, with KV kept as a
// named instantiation for the common case.
package iter

import (
	"context"

	"github.com/fdbgo/fdb/kv"
)

// Cursor is the generic pull-based producer every operator in this package
// wraps: kv.Cursor specialized to kv.Record is Cursor[kv.Record].
type Cursor[R any] interface {
	Advance(ctx context.Context) (kv.CursorState, error)
	Current() (R, bool)
	Close()
}

// Seq adapts any Cursor[R] into the receiver of this package's operator
// methods. There is no implicit deferred-execution object: every operator
// returns another Seq, itself a Cursor[R], so pipelines are built by
// direct composition.
type Seq[R any] struct {
	Cursor[R]
}

// From wraps an existing Cursor[R] so operator methods are available on it.
func From[R any](c Cursor[R]) Seq[R] { return Seq[R]{Cursor: c} }

// KVPair is the (key, value) element type used by range-read results
// before any projection is applied.
type KVPair = kv.Record

// KV is the named instantiation matching this codebase's iter.KV: a
// sequence of raw key/value pairs.
type KV = Seq[KVPair]

// ToSlice is the one materializing sink in the core: it drains the cursor
// and disposes it, returning every emitted element in order.
func ToSlice[R any](ctx context.Context, c Cursor[R]) ([]R, error) {
	defer c.Close()
	var out []R
	for {
		if err := kv.CheckContext(ctx); err != nil {
			return out, err
		}
		state, err := c.Advance(ctx)
		switch state {
		case kv.Advanced:
			v, _ := c.Current()
			out = append(out, v)
		case kv.End:
			return out, nil
		case kv.Fault:
			return out, err
		}
	}
}

// ToSlice is the method form, for chaining at the end of a Seq pipeline.
func (s Seq[R]) ToSlice(ctx context.Context) ([]R, error) { return ToSlice[R](ctx, s.Cursor) }
