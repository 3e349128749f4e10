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

package memkv

import (
	"context"
	"errors"

	"go.uber.org/atomic"

	"github.com/fdbgo/fdb/kv"
)

var errTxnClosed = errors.New("memkv: transaction is no longer readable")

// Txn is a minimal kv.Transaction double: a context plus a snapshot flag,
// with no write path and no real "read allowed" bookkeeping beyond having
// been closed. It is enough to exercise every cursor and set-algebra code
// path that only ever reads from a Transaction.
type Txn struct {
	ctx      context.Context
	snapshot bool
	closed   atomic.Bool
}

var _ kv.Transaction = (*Txn)(nil)

// NewTxn builds a Txn bound to ctx.
func NewTxn(ctx context.Context, snapshot bool) *Txn {
	return &Txn{ctx: ctx, snapshot: snapshot}
}

func (t *Txn) Context() context.Context { return t.ctx }

func (t *Txn) Snapshot() bool { return t.snapshot }

func (t *Txn) EnsureReadable() error {
	if t.closed.Load() {
		return kv.NewFault(kv.Contract, errTxnClosed)
	}
	return nil
}

// Close marks the transaction unreadable, so cursors created against it
// start returning Contract faults - used to test that a fault from this
// precondition propagates like any other.
func (t *Txn) Close() { t.closed.Store(true) }
