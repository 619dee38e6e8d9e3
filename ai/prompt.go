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

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

// RenderChat formats a chat prompt template and splits the messages into
// the system and user text expected by Generator. Multiple messages of the
// same role are joined with a blank line.
func RenderChat(tmpl prompts.ChatPromptTemplate, values map[string]any) (system, prompt string, err error) {
	messages, err := tmpl.FormatMessages(values)
	if err != nil {
		return "", "", fmt.Errorf("failed to render prompt: %w", err)
	}

	var sys, human []string
	for _, msg := range messages {
		switch msg.GetType() {
		case llms.ChatMessageTypeSystem:
			sys = append(sys, msg.GetContent())
		default:
			human = append(human, msg.GetContent())
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(human, "\n\n"), nil
}

// GenerateChat renders tmpl and runs one generation call.
func GenerateChat(ctx context.Context, gen Generator, tmpl prompts.ChatPromptTemplate, values map[string]any) (string, error) {
	system, prompt, err := RenderChat(tmpl, values)
	if err != nil {
		return "", err
	}
	return gen.Generate(ctx, system, prompt)
}
