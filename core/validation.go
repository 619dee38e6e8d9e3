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
	"fmt"
	"strings"
)

// MinQueryLength is the shortest query accepted for research.
const MinQueryLength = 10

// Advisory messages recorded by ValidateQuery.
const (
	WarnQueryTooShort          = "Query is too short"
	EnhanceLegalTerminology    = "Consider adding specific legal terminology to focus your search"
	EnhanceMentionJurisdiction = "Consider explicitly mentioning Massachusetts to focus on relevant jurisdiction"
)

// legalTerms is the vocabulary checked by ValidateQuery. Matching is by
// substring, so "lawyer" counts as containing "law".
var legalTerms = []string{
	"law", "case", "statute", "regulation", "court", "decision",
	"plaintiff", "defendant", "appeal", "tort", "contract",
	"property", "liability", "rights", "judge", "jury", "verdict",
}

// QueryValidation is the pre-flight result for a research query. Only a
// false Valid blocks submission; Enhancements are advisory.
type QueryValidation struct {
	Valid        bool     `json:"valid"`
	Enhancements []string `json:"enhancements"`
	Warnings     []string `json:"warnings"`
}

// ValidateQuery checks a research query.
//
// Validation rules:
//   - Query must be at least MinQueryLength characters after trimming
//
// Advisory only:
//   - Query mentions legal vocabulary
//   - Query mentions the Massachusetts jurisdiction
func ValidateQuery(query string) QueryValidation {
	result := QueryValidation{
		Valid:        true,
		Enhancements: []string{},
		Warnings:     []string{},
	}

	if len([]rune(strings.TrimSpace(query))) < MinQueryLength {
		result.Valid = false
		result.Warnings = append(result.Warnings, WarnQueryTooShort)
	}

	lower := strings.ToLower(query)
	hasLegalTerm := false
	for _, term := range legalTerms {
		if strings.Contains(lower, term) {
			hasLegalTerm = true
			break
		}
	}
	if !hasLegalTerm {
		result.Enhancements = append(result.Enhancements, EnhanceLegalTerminology)
	}

	// "mass" also covers "massachusetts"
	if !strings.Contains(lower, "mass") {
		result.Enhancements = append(result.Enhancements, EnhanceMentionJurisdiction)
	}

	return result
}

// Err returns ErrQueryTooShort for an invalid result and nil otherwise.
func (v QueryValidation) Err() error {
	if v.Valid {
		return nil
	}
	return ErrQueryTooShort
}

// ValidateFormat checks that f is a supported output format.
func ValidateFormat(f Format) error {
	switch f {
	case FormatMarkdown, FormatHTML, FormatJSON:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidFormat, f)
}

// ValidateLength checks that l is a supported length tier.
func ValidateLength(l LengthTier) error {
	switch l {
	case LengthBrief, LengthStandard, LengthComprehensive:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidLength, l)
}

// NormalizeOptions fills defaults and validates opts.
//
// Defaults:
//   - Format: markdown
//   - Length: comprehensive
func NormalizeOptions(opts Options) (Options, error) {
	if opts.Format == "" {
		opts.Format = FormatMarkdown
	}
	if opts.Length == "" {
		opts.Length = LengthComprehensive
	}
	opts.Format = Format(strings.ToLower(string(opts.Format)))
	opts.Length = LengthTier(strings.ToLower(string(opts.Length)))

	if err := ValidateFormat(opts.Format); err != nil {
		return opts, err
	}
	if err := ValidateLength(opts.Length); err != nil {
		return opts, err
	}
	if opts.YearStart != nil && opts.YearEnd != nil && *opts.YearStart > *opts.YearEnd {
		return opts, fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, *opts.YearStart, *opts.YearEnd)
	}
	return opts, nil
}
