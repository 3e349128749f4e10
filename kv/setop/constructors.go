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

package setop

import (
	"github.com/ledgerwatch/log/v3"

	"github.com/fdbgo/fdb/kv/iter"
)

func identity[In any](v In) In { return v }

// MergeSort is the public operator surface's merge_sort(sources, key_fn,
// [cmp]): an ordered union with no result_fn, so the whole record of the
// surviving cursor is emitted unchanged. Per spec.md §9's resolved Open
// Question, "surviving" always means the lowest cursor_id among ties.
func MergeSort[In, K any](sources []iter.Cursor[In], keyFn KeyFunc[In, K], cmp CompareFunc[K]) (*Iterator[In, K, In], error) {
	return New[In, K, In](Union, sources, keyFn, identity[In], cmp, nil)
}

// Union is merge_sort under another name, matching spec.md §6 which lists
// both in the public surface with identical semantics.
func Union[In, K any](sources []iter.Cursor[In], keyFn KeyFunc[In, K], cmp CompareFunc[K]) (*Iterator[In, K, In], error) {
	return New[In, K, In](Union, sources, keyFn, identity[In], cmp, nil)
}

// UnionWithResult is Union with an explicit result_fn projection.
func UnionWithResult[In, K, Out any](sources []iter.Cursor[In], keyFn KeyFunc[In, K], resultFn ResultFunc[In, Out], cmp CompareFunc[K]) (*Iterator[In, K, Out], error) {
	return New[In, K, Out](Union, sources, keyFn, resultFn, cmp, nil)
}

// Intersect is the public operator surface's intersect(sources, key_fn,
// [cmp]).
func Intersect[In, K any](sources []iter.Cursor[In], keyFn KeyFunc[In, K], cmp CompareFunc[K]) (*Iterator[In, K, In], error) {
	return New[In, K, In](Intersect, sources, keyFn, identity[In], cmp, nil)
}

// IntersectWithResult is Intersect with an explicit result_fn projection.
func IntersectWithResult[In, K, Out any](sources []iter.Cursor[In], keyFn KeyFunc[In, K], resultFn ResultFunc[In, Out], cmp CompareFunc[K]) (*Iterator[In, K, Out], error) {
	return New[In, K, Out](Intersect, sources, keyFn, resultFn, cmp, nil)
}

// Except is the public operator surface's except(sources, key_fn, [cmp]).
// sources[0] is the positive side.
func Except[In, K any](sources []iter.Cursor[In], keyFn KeyFunc[In, K], cmp CompareFunc[K]) (*Iterator[In, K, In], error) {
	return New[In, K, In](Except, sources, keyFn, identity[In], cmp, nil)
}

// ExceptWithResult is Except with an explicit result_fn projection.
func ExceptWithResult[In, K, Out any](sources []iter.Cursor[In], keyFn KeyFunc[In, K], resultFn ResultFunc[In, Out], cmp CompareFunc[K]) (*Iterator[In, K, Out], error) {
	return New[In, K, Out](Except, sources, keyFn, resultFn, cmp, nil)
}

// WithLogger overrides the default root logger on an already-constructed
// iterator; useful when callers want per-query log attribution.
func WithLogger[In, K, Out any](it *Iterator[In, K, Out], logger log.Logger) *Iterator[In, K, Out] {
	if logger != nil {
		it.log = logger
	}
	return it
}
