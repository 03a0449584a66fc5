// Copyright 2023 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package streammd

import (
	"html"
	"regexp"
)

// entityPattern matches an HTML5 named, decimal, or hexadecimal
// character reference, anchored at the start of the match text (callers
// use FindIndex starting at a known '&').
var entityPattern = regexp.MustCompile(`^&(#[xX][0-9a-fA-F]{1,6}|#[0-9]{1,7}|[a-zA-Z][a-zA-Z0-9]{1,31});`)

// matchEntity reports whether b begins with a character reference, and
// if so, its decoded replacement text and byte length.
func matchEntity(b []byte) (decoded string, length int, ok bool) {
	loc := entityPattern.FindIndex(b)
	if loc == nil || loc[0] != 0 {
		return "", 0, false
	}
	raw := string(b[:loc[1]])
	decoded = html.UnescapeString(raw)
	if decoded == raw {
		// html.UnescapeString leaves unrecognized named references
		// alone; CommonMark requires the reference be a real one.
		return "", 0, false
	}
	return decoded, loc[1], true
}
