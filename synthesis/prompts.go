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

package synthesis

import "github.com/tmc/langchaingo/prompts"

const (
	// NotRequestedPlaceholder stands in for a provider the job did not use.
	NotRequestedPlaceholder = "No information requested from this source."

	// MissingResultPlaceholder stands in for a requested provider that
	// produced no result.
	MissingResultPlaceholder = "No information available from this source."
)

const systemTemplate = `You are a specialized legal research assistant creating formal legal research reports.

Your task is to synthesize historical Massachusetts case law with recent legal commentary and web information
to produce a comprehensive {{.pages}} page legal research report.

Follow these guidelines:
1. Write in formal legal style with proper citations
2. Create a {{.detail}}
3. Organize by legal principles and precedents
4. Include both historical context and current interpretations
5. Format as a professional legal research memorandum
6. Include executive summary, table of contents, methodology, analysis, and conclusion sections
7. Use proper legal citation format
8. Add footnotes for important references

Output format: {{.format}}
Output length: {{.pages}} pages`

const humanTemplate = `LEGAL QUERY:
{{.query}}

HISTORICAL CASE LAW INFORMATION:
{{.historical}}

RECENT LEGAL COMMENTARY AND WEB INFORMATION:
{{.web}}`

var reportPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
	prompts.NewSystemMessagePromptTemplate(systemTemplate, []string{"pages", "detail", "format"}),
	prompts.NewHumanMessagePromptTemplate(humanTemplate, []string{"query", "historical", "web"}),
})
