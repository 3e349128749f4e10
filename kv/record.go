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

// Package kv defines the data model and contracts that the set-algebra
// streaming engine consumes: Record, range selectors/options, pages, the
// pull-based Cursor interface, the Transport and Transaction collaborators,
// and the error taxonomy. It mirrors the shape of a low-level ordered-KV
// client binding (selector-resolved range reads, paged results, a
// read-only transaction snapshot) rather than a general storage engine.
package kv

import "bytes"

// Record is a single (key, value) pair pulled from the store. Only Key
// participates in ordering; Value is opaque payload.
type Record struct {
	Key   []byte
	Value []byte
}

// Clone returns a deep copy, safe to retain past the lifetime of the page
// buffer it was read from.
func (r Record) Clone() Record {
	k := make([]byte, len(r.Key))
	copy(k, r.Key)
	v := make([]byte, len(r.Value))
	copy(v, r.Value)
	return Record{Key: k, Value: v}
}

// CompareKeys is the default key comparator: lexicographic byte order,
// the store's native ordering.
func CompareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}
