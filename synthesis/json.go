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

import (
	"encoding/json"
	"unicode"
)

// normalizeJSON returns s unchanged when it is valid JSON. Otherwise it
// tries repairJSON and returns the repaired text if that parses.
func normalizeJSON(s string) (string, bool) {
	if json.Valid([]byte(s)) {
		return s, true
	}
	repaired := repairJSON(s)
	if json.Valid([]byte(repaired)) {
		return repaired, true
	}
	return s, false
}

// repairJSON fixes object keys that lost their opening quote, a common
// model mistake: `{ summary": 1}` becomes `{ "summary": 1}`.
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	i := 0
	for i < len(in) {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(in) && unicode.IsSpace(in[i]) {
			out = append(out, in[i])
			i++
		}
		if i >= len(in) || !unicode.IsLetter(in[i]) {
			continue
		}

		start := i
		for i < len(in) && (unicode.IsLetter(in[i]) || unicode.IsDigit(in[i]) || in[i] == '_') {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, in[start:i]...)
	}
	return string(out)
}
