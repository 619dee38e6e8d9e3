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

// Package ingest loads case-law passages from JSONL files into a vector
// store. Each line carries the passage text and its case metadata:
//
//	{"text": "...", "case_name": "Smith v. Jones", "citation": "123 F.3d 456", "year": 1998, "source": "CAP"}
package ingest
