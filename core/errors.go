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

package core

import (
	"errors"
	"fmt"
)

// Request validation errors. Each wraps ErrInvalidRequest so callers can
// map the whole class with a single errors.Is check.
var (
	// ErrInvalidRequest is the parent of every request validation error.
	ErrInvalidRequest = errors.New("invalid research request")

	// ErrQueryTooShort indicates the query is below MinQueryLength.
	ErrQueryTooShort = fmt.Errorf("%w: query is too short", ErrInvalidRequest)

	// ErrInvalidYearRange indicates YearStart is after YearEnd.
	ErrInvalidYearRange = fmt.Errorf("%w: year start is after year end", ErrInvalidRequest)

	// ErrInvalidFormat indicates an unsupported output format.
	ErrInvalidFormat = fmt.Errorf("%w: unsupported output format", ErrInvalidRequest)

	// ErrInvalidLength indicates an unsupported length tier.
	ErrInvalidLength = fmt.Errorf("%w: unsupported length tier", ErrInvalidRequest)
)

// Job state machine errors
var (
	// ErrTerminalState indicates a patch tried to leave completed or failed.
	ErrTerminalState = errors.New("job is in a terminal state")

	// ErrInvalidTransition indicates a status change the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrFieldAlreadySet indicates content or error was written twice.
	ErrFieldAlreadySet = errors.New("job field already set")
)
