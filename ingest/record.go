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

package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/tmc/langchaingo/schema"

	"github.com/poiesic/lexresearch/storage/badger"
)

const maxLineBytes = 4 << 20

// Record is one JSONL line of a case-law corpus.
type Record struct {
	Text     string `json:"text"`
	CaseName string `json:"case_name"`
	Citation string `json:"citation"`
	Year     int    `json:"year"`
	Source   string `json:"source"`
}

// Document converts the record into a vector-store document using the
// shared metadata keys.
func (r Record) Document() schema.Document {
	meta := map[string]any{
		badger.MetadataCaseName: r.CaseName,
		badger.MetadataCitation: r.Citation,
		badger.MetadataSource:   r.Source,
	}
	if r.Year > 0 {
		meta[badger.MetadataYear] = r.Year
	}
	return schema.Document{PageContent: r.Text, Metadata: meta}
}

// Records yields the records of a JSONL stream in order. Blank lines are
// skipped. A malformed line yields an error wrapping ErrMalformedRecord and
// ends the sequence.
func Records(r io.Reader) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			var rec Record
			if err := json.Unmarshal([]byte(text), &rec); err != nil {
				yield(Record{}, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, line, err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Record{}, err)
		}
	}
}

// CountRecords returns the number of non-blank lines in r.
func CountRecords(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	n := 0
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			n++
		}
	}
	return n, scanner.Err()
}
