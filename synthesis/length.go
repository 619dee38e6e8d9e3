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

import "github.com/poiesic/lexresearch/core"

// Directive is the page range and detail description for a length tier.
type Directive struct {
	Pages  string
	Detail string
}

var directives = map[core.LengthTier]Directive{
	core.LengthBrief:         {Pages: "5-7", Detail: "concise overview of key points"},
	core.LengthStandard:      {Pages: "10-15", Detail: "balanced analysis with moderate detail"},
	core.LengthComprehensive: {Pages: "20-30", Detail: "in-depth analysis with thorough examination of legal principles"},
}

// LengthDirective returns the directive for tier. Unknown tiers get the
// comprehensive directive.
func LengthDirective(tier core.LengthTier) Directive {
	if d, ok := directives[tier]; ok {
		return d
	}
	return directives[core.LengthComprehensive]
}
