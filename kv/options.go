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

package kv

import "github.com/fdbgo/fdb/kv/order"

// StreamingMode hints to the backend how aggressively to size pages.
type StreamingMode int

const (
	// StreamingModeIterator starts with small pages and grows them as the
	// caller keeps pulling. Good default for an unknown-length scan.
	StreamingModeIterator StreamingMode = iota
	StreamingModeSmall
	StreamingModeMedium
	StreamingModeLarge
	// StreamingModeSerial hints that a single backend server should serve
	// the whole range, one page at a time.
	StreamingModeSerial
	// StreamingModeWantAll asks for one large page covering the range.
	StreamingModeWantAll
	// StreamingModeExact requires Limit > 0 and disables adaptive sizing.
	StreamingModeExact
)

func (m StreamingMode) String() string {
	switch m {
	case StreamingModeIterator:
		return "iterator"
	case StreamingModeSmall:
		return "small"
	case StreamingModeMedium:
		return "medium"
	case StreamingModeLarge:
		return "large"
	case StreamingModeSerial:
		return "serial"
	case StreamingModeWantAll:
		return "want_all"
	case StreamingModeExact:
		return "exact"
	default:
		return "unknown"
	}
}

// DefaultTargetBytes is used when RangeOptions.TargetBytes is left at zero.
const DefaultTargetBytes = 80_000

// RangeOptions configures how a Paged Range Reader drives the
// get-next-page protocol against one RangeSelector.
type RangeOptions struct {
	// Limit caps the number of records delivered from the range. Zero
	// means unbounded.
	Limit int
	// TargetBytes is a soft cap on bytes per page. Zero means
	// DefaultTargetBytes.
	TargetBytes int
	Mode        StreamingMode
	Reverse     bool
}

// Direction reports the effective walk direction implied by Reverse.
func (o RangeOptions) Direction() order.By { return order.FromReverse(o.Reverse) }

// Validate enforces the one hard precondition spec.md calls out: Exact mode
// requires a positive limit.
func (o RangeOptions) Validate() error {
	if o.Mode == StreamingModeExact && o.Limit <= 0 {
		return &Fault{Kind: Contract, Err: errString("streaming mode exact requires RangeOptions.Limit > 0")}
	}
	return nil
}

func (o RangeOptions) targetBytesOrDefault() int {
	if o.TargetBytes <= 0 {
		return DefaultTargetBytes
	}
	return o.TargetBytes
}

// RangeOption is a functional option for building a RangeOptions value,
// following the small-options-struct pattern used for remote KV client
// configuration in this codebase.
type RangeOption func(*RangeOptions)

func WithLimit(n int) RangeOption { return func(o *RangeOptions) { o.Limit = n } }

func WithTargetBytes(n int) RangeOption { return func(o *RangeOptions) { o.TargetBytes = n } }

func WithStreamingMode(m StreamingMode) RangeOption { return func(o *RangeOptions) { o.Mode = m } }

func Reversed() RangeOption { return func(o *RangeOptions) { o.Reverse = true } }

// NewRangeOptions builds a RangeOptions from functional options, defaulting
// to StreamingModeIterator / forward direction / unbounded limit.
func NewRangeOptions(opts ...RangeOption) RangeOptions {
	var o RangeOptions
	o.TargetBytes = o.targetBytesOrDefault()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
