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

// Package order carries the direction vocabulary shared by range options,
// cursors and the set-algebra operators: ascending vs descending, and a
// three-way comparison result.
package order

// By is the direction a range or a merge is walked in.
type By bool

const (
	Asc  By = true
	Desc By = false
)

func (b By) String() string {
	if b == Asc {
		return "asc"
	}
	return "desc"
}

func (b By) Bool() bool { return bool(b) }

// FromReverse maps the wire-level "reverse" flag used by range options onto
// a By value.
func FromReverse(reverse bool) By {
	if reverse {
		return Desc
	}
	return Asc
}

// Ordering is the result of a three-way comparison: negative, zero or
// positive, same convention as bytes.Compare.
type Ordering int

func FromInt(i int) Ordering {
	switch {
	case i < 0:
		return -1
	case i > 0:
		return 1
	default:
		return 0
	}
}

func (o Ordering) Less() bool    { return o < 0 }
func (o Ordering) Equal() bool   { return o == 0 }
func (o Ordering) Greater() bool { return o > 0 }

// Reverse flips an ordering, turning an ascending comparator into a
// descending one without rewriting the comparator itself.
func Reverse(o Ordering) Ordering { return -o }
