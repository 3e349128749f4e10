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

// Page (aka Chunk) is one batch of records returned by a single backend
// range read. Records are ordered according to Reversed; HasMore=false is
// terminal and must come paired with an empty Records slice.
type Page struct {
	Records  []Record
	HasMore  bool
	// Iteration is the 1-based page counter for this range: it must
	// increase monotonically across successive pages so the backend can
	// detect a reader that's fallen behind its own cursor.
	Iteration uint32
	Reversed  bool
}

// Empty reports the only legal terminal shape: no records and no more
// pages coming.
func (p Page) Empty() bool { return len(p.Records) == 0 && !p.HasMore }
