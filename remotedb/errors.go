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

package remotedb

import (
	"fmt"

	"github.com/fdbgo/fdb/kv"
)

// backendErrorKinds maps the numeric-ish error codes the backend can
// surface to the taxonomy of spec.md §7. This mapping is transport-
// specific: package kv/setop never sees an unclassified error, only the
// kv.Fault this produces.
var backendErrorKinds = map[string]kv.Kind{
	"past_version":           kv.Retryable,
	"future_version":         kv.Retryable,
	"not_committed":          kv.Retryable,
	"commit_unknown_result":  kv.Retryable,
	"transaction_too_old":    kv.Retryable,
	"operation_cancelled":    kv.Cancelled,
	"transaction_too_large":  kv.FatalInput,
	"key_too_large":          kv.FatalInput,
	"value_too_large":        kv.FatalInput,
	"no_more_servers":        kv.Transport,
	"broken_promise":         kv.Transport,
	"connection_failed":      kv.Transport,
}

func classifyBackendError(code, message string) error {
	kind, ok := backendErrorKinds[code]
	if !ok {
		kind = kv.Backend
	}
	return kv.NewFault(kind, fmt.Errorf("remotedb: backend error %s: %s", code, message))
}
