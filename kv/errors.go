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

import (
	"context"
	"errors"
	"fmt"
)

// Kind partitions every error the engine can surface into the taxonomy of
// spec.md §7. Callers branch on Kind, never on the wrapped backend error.
type Kind int8

const (
	// Backend is any backend failure not covered by a more specific kind.
	Backend Kind = iota
	// Cancelled means the ambient cancellation token fired.
	Cancelled
	// Retryable means the transaction conflicted or read a stale version;
	// the caller must abandon the iterator and retry from a fresh
	// transaction.
	Retryable
	// Transport means the network or a server was lost.
	Transport
	// FatalInput means the caller violated a hard limit (key/value/txn
	// too large).
	FatalInput
	// Contract means a programming error: nil/empty inputs, N=0, Exact
	// streaming mode without a limit, reading from a closed transaction,
	// and so on.
	Contract
)

func (k Kind) String() string {
	switch k {
	case Cancelled:
		return "cancelled"
	case Retryable:
		return "retryable"
	case Transport:
		return "transport"
	case FatalInput:
		return "fatal_input"
	case Contract:
		return "contract"
	default:
		return "backend"
	}
}

// Fault is the error type every component in the engine returns. It wraps
// the underlying backend error (if any) so errors.Is/As still work against
// it, while exposing a stable Kind for branching.
type Fault struct {
	Kind Kind
	// Cursor, when non-empty, names which input cursor raised the fault
	// (used when a set-algebra iterator re-raises after disposing
	// siblings).
	Cursor string
	Err    error
}

func (f *Fault) Error() string {
	if f.Cursor != "" {
		return fmt.Sprintf("%s (cursor %s): %v", f.Kind, f.Cursor, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault wraps err (which may be nil) under kind.
func NewFault(kind Kind, err error) *Fault {
	return &Fault{Kind: kind, Err: err}
}

// WithCursor annotates a Fault with the cursor identity that raised it,
// without losing Kind/Unwrap.
func (f *Fault) WithCursor(id string) *Fault {
	return &Fault{Kind: f.Kind, Cursor: id, Err: f.Err}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Fault, otherwise
// Backend.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Backend
}

// errString is a trivial errors.New-alike kept local to this package so
// option validation (options.go) doesn't need to import "errors" just for
// one call site.
func errString(s string) error { return errors.New(s) }

// ErrCancelled is returned (wrapped in a Fault) whenever a cancellation
// token fires at a suspension point.
var ErrCancelled = errors.New("operation cancelled")

// CheckContext turns a cancelled/deadline-exceeded context into the
// Cancelled Fault kind the rest of the engine expects; it is the single
// place every suspension point consults before issuing I/O.
func CheckContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewFault(Cancelled, fmt.Errorf("%w: %v", ErrCancelled, err))
	}
	return nil
}
