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

// Package api serves the research service over HTTP.
//
// The REST surface submits, polls, lists and deletes jobs. The tool surface
// under /tools mirrors the assistant tools (conduct_research,
// check_research_status, get_research_sources), and /resources and
// /prompts serve plain-text reports and the assistant prompt. Request
// bodies are validated against JSON Schemas before decoding.
package api
