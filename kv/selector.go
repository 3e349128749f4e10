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

import "fmt"

// KeySelector is a symbolic reference to a key, resolved by the store:
// "the offset-th key from the first key {>,>=} ReferenceKey".
type KeySelector struct {
	ReferenceKey []byte
	OrEqual      bool
	Offset       int32
}

func (s KeySelector) String() string {
	rel := ">"
	if s.OrEqual {
		rel = ">="
	}
	return fmt.Sprintf("KeySelector(%s%q+%d)", rel, s.ReferenceKey, s.Offset)
}

// FirstGreaterThan builds the selector for "first key strictly greater than
// key".
func FirstGreaterThan(key []byte) KeySelector {
	return KeySelector{ReferenceKey: key, OrEqual: false, Offset: 1}
}

// FirstGreaterOrEqual builds the selector for "first key greater than or
// equal to key".
func FirstGreaterOrEqual(key []byte) KeySelector {
	return KeySelector{ReferenceKey: key, OrEqual: true, Offset: 1}
}

// KeyAfter returns the lexicographically smallest key strictly greater than
// key, used to step a selector past an already-emitted key without asking
// the backend to resolve a symbolic selector.
func KeyAfter(key []byte) []byte {
	out := make([]byte, len(key)+1)
	copy(out, key)
	return out
}

// RangeSelector is a half-open [Begin, End) range, each endpoint a
// KeySelector. In forward mode: Begin <= k < End. Reverse only flips the
// direction records are delivered in; Begin/End are never swapped.
type RangeSelector struct {
	Begin KeySelector
	End   KeySelector
}

// Range builds the common case of a literal [begin, end) byte-key range.
func Range(begin, end []byte) RangeSelector {
	return RangeSelector{
		Begin: FirstGreaterOrEqual(begin),
		End:   FirstGreaterOrEqual(end),
	}
}
