// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"errors"
	"fmt"

	"github.com/poiesic/lexresearch/core"
)

var (
	// ErrUnknownProvider is returned in strict mode when a request names a
	// provider that is not registered.
	ErrUnknownProvider = fmt.Errorf("%w: unknown provider", core.ErrInvalidRequest)

	// ErrBusy is returned when the job pool has no free capacity.
	ErrBusy = errors.New("research service is at capacity")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("orchestrator is closed")

	// ErrNilStore is returned by New without a job store.
	ErrNilStore = errors.New("job store is required")

	// ErrNilSynthesizer is returned by New without a synthesizer.
	ErrNilSynthesizer = errors.New("synthesizer is required")

	// ErrDuplicateProvider is returned by New when two providers share a name.
	ErrDuplicateProvider = errors.New("duplicate provider name")
)
