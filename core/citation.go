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
	"strconv"
	"strings"
)

// Citation defaults applied by NormalizeCitation.
const (
	DefaultCaseName     = "Unknown case"
	DefaultCaseSource   = "Massachusetts Reports"
	DefaultWebTitle     = "Untitled"
	WebSearchSource     = "Web Search"
	UnknownCaseCitation = "Unknown case"
)

// NormalizeCitation fills the defaults for the citation's variant.
// Case-law citations never carry a URL; web citations always report the
// "Web Search" source.
func NormalizeCitation(c Citation) Citation {
	switch c.Type {
	case CitationCaseLaw:
		if c.CaseName == "" {
			c.CaseName = DefaultCaseName
		}
		if c.Source == "" {
			c.Source = DefaultCaseSource
		}
		c.URL = ""
		c.Title = ""
		c.PublishedDate = ""
	case CitationWeb:
		if c.Title == "" {
			c.Title = DefaultWebTitle
		}
		c.Source = WebSearchSource
		c.CaseName = ""
		c.Citation = ""
		c.Year = 0
	}
	return c
}

// FormatLegalCitation renders a case-law citation as "Name, Cite (Year)",
// dropping the parts that are missing.
func FormatLegalCitation(caseName, citation string, year int) string {
	switch {
	case caseName != "" && citation != "" && year > 0:
		return caseName + ", " + citation + " (" + strconv.Itoa(year) + ")"
	case caseName != "" && year > 0:
		return caseName + " (" + strconv.Itoa(year) + ")"
	case caseName != "":
		return caseName
	default:
		return UnknownCaseCitation
	}
}

// String formats the citation for display.
func (c Citation) String() string {
	if c.Type == CitationWeb {
		if c.URL == "" {
			return c.Title
		}
		return c.Title + " <" + c.URL + ">"
	}
	return FormatLegalCitation(c.CaseName, c.Citation, c.Year)
}

// ExtractLegalPrinciples returns the lines of content that read like a
// statement of a legal rule, in order and without duplicates.
func ExtractLegalPrinciples(content string) []string {
	principles := []string{}
	seen := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "principle") ||
			strings.Contains(lower, "rule") ||
			strings.Contains(lower, "doctrine") ||
			strings.Contains(lower, "court held") ||
			strings.Contains(lower, "court ruled") ||
			(strings.Contains(lower, "standard") && strings.Contains(lower, "established")) {
			seen[trimmed] = true
			principles = append(principles, trimmed)
		}
	}
	return principles
}
