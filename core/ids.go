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
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// JobIDPrefix starts every job identifier.
const JobIDPrefix = "research_"

// NewJobID returns a job identifier built from a random 128-bit UUID.
func NewJobID() string {
	id := uuid.New()
	return JobIDPrefix + hex.EncodeToString(id[:])
}

// IsJobID reports whether s has the shape produced by NewJobID.
func IsJobID(s string) bool {
	rest, ok := strings.CutPrefix(s, JobIDPrefix)
	if !ok || len(rest) != 32 {
		return false
	}
	_, err := hex.DecodeString(rest)
	return err == nil
}

// IDFromContent generates a deterministic passage ID from text content
// using BLAKE2b hashing. Identical content produces identical IDs.
func IDFromContent(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
