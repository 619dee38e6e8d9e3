package core

import (
	"reflect"
	"testing"
)

func TestFormatLegalCitation(t *testing.T) {
	tests := []struct {
		name     string
		caseName string
		citation string
		year     int
		want     string
	}{
		{"full", "Smith v. Jones", "412 Mass. 100", 1992, "Smith v. Jones, 412 Mass. 100 (1992)"},
		{"no citation", "Smith v. Jones", "", 1992, "Smith v. Jones (1992)"},
		{"name only", "Smith v. Jones", "412 Mass. 100", 0, "Smith v. Jones"},
		{"nothing", "", "412 Mass. 100", 1992, "Unknown case"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLegalCitation(tt.caseName, tt.citation, tt.year); got != tt.want {
				t.Errorf("FormatLegalCitation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeCitation(t *testing.T) {
	caseLaw := NormalizeCitation(Citation{Type: CitationCaseLaw, URL: "https://x"})
	if caseLaw.CaseName != DefaultCaseName || caseLaw.Source != DefaultCaseSource || caseLaw.URL != "" {
		t.Errorf("NormalizeCitation(case_law) = %+v", caseLaw)
	}

	web := NormalizeCitation(Citation{Type: CitationWeb, URL: "https://mass.gov", Source: "tavily"})
	if web.Title != DefaultWebTitle || web.Source != WebSearchSource {
		t.Errorf("NormalizeCitation(web) = %+v", web)
	}
}

func TestExtractLegalPrinciples(t *testing.T) {
	content := `# Adverse Possession

The court held that possession must be open and notorious.
Claimants must show twenty years of use.
The doctrine of tacking allows successive possessors to combine periods.
The court held that possession must be open and notorious.
A standard was established in Lawrence v. Concord.
This line mentions a standard only.`

	want := []string{
		"The court held that possession must be open and notorious.",
		"The doctrine of tacking allows successive possessors to combine periods.",
		"A standard was established in Lawrence v. Concord.",
	}

	got := ExtractLegalPrinciples(content)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractLegalPrinciples() = %v, want %v", got, want)
	}
}

func TestExtractLegalPrinciples_Empty(t *testing.T) {
	got := ExtractLegalPrinciples("")
	if got == nil || len(got) != 0 {
		t.Errorf("ExtractLegalPrinciples(\"\") = %v, want empty slice", got)
	}
}
