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

package badger

import (
	"fmt"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/storage"
)

// Metadata keys written on documents returned by PassageStore. They match
// the keys used in the hosted Pinecone index so filters and readers work
// against either store.
const (
	MetadataCaseName = "case_name"
	MetadataCitation = "citation"
	MetadataYear     = "year"
	MetadataSource   = "source"
)

// passageFilter is a parsed Pinecone-style metadata filter, e.g.
//
//	{"year": {"$gte": 1990, "$lte": 2010}, "source": "Massachusetts Reports"}
type passageFilter struct {
	year   []yearBound
	equals map[string]string
}

type yearBound struct {
	op    string
	value float64
}

// parseFilter accepts nil or a map[string]any in Pinecone filter syntax.
// Only "year" supports range operators; string fields support equality.
func parseFilter(filters any) (*passageFilter, error) {
	f := &passageFilter{equals: make(map[string]string)}
	if filters == nil {
		return f, nil
	}

	m, ok := filters.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: filter must be map[string]any, got %T", storage.ErrInvalidQuery, filters)
	}

	for field, cond := range m {
		switch field {
		case MetadataYear:
			bounds, err := parseYearCondition(cond)
			if err != nil {
				return nil, err
			}
			f.year = append(f.year, bounds...)
		case MetadataCaseName, MetadataCitation, MetadataSource:
			value, err := parseEquality(field, cond)
			if err != nil {
				return nil, err
			}
			f.equals[field] = value
		default:
			return nil, fmt.Errorf("%w: unsupported filter field %q", storage.ErrInvalidQuery, field)
		}
	}
	return f, nil
}

func parseYearCondition(cond any) ([]yearBound, error) {
	if v, ok := toFloat(cond); ok {
		return []yearBound{{op: "$eq", value: v}}, nil
	}

	ops, ok := cond.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: year condition must be a number or operator map", storage.ErrInvalidQuery)
	}

	bounds := make([]yearBound, 0, len(ops))
	for op, raw := range ops {
		switch op {
		case "$eq", "$gt", "$gte", "$lt", "$lte":
		default:
			return nil, fmt.Errorf("%w: unsupported year operator %q", storage.ErrInvalidQuery, op)
		}
		v, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%w: year operand for %s must be numeric, got %T", storage.ErrInvalidQuery, op, raw)
		}
		bounds = append(bounds, yearBound{op: op, value: v})
	}
	return bounds, nil
}

func parseEquality(field string, cond any) (string, error) {
	if s, ok := cond.(string); ok {
		return s, nil
	}
	if ops, ok := cond.(map[string]any); ok && len(ops) == 1 {
		if s, ok := ops["$eq"].(string); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s supports only string equality", storage.ErrInvalidQuery, field)
}

// matches reports whether the passage satisfies every condition.
func (f *passageFilter) matches(p *core.Passage) bool {
	year := float64(p.Year)
	for _, b := range f.year {
		// Passages with an unknown year never satisfy a year condition
		if p.Year == 0 {
			return false
		}
		switch b.op {
		case "$eq":
			if year != b.value {
				return false
			}
		case "$gt":
			if year <= b.value {
				return false
			}
		case "$gte":
			if year < b.value {
				return false
			}
		case "$lt":
			if year >= b.value {
				return false
			}
		case "$lte":
			if year > b.value {
				return false
			}
		}
	}

	for field, want := range f.equals {
		var got string
		switch field {
		case MetadataCaseName:
			got = p.CaseName
		case MetadataCitation:
			got = p.Citation
		case MetadataSource:
			got = p.Source
		}
		if got != want {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
