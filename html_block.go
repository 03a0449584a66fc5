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
	"bytes"

	"golang.org/x/net/html/atom"
)

// htmlBlockStarters6 is the tag name set for HTML block start condition
// 6: a long list of block-level tag names after which no further
// condition checking is required, only a blank line ends the block.
var htmlBlockStarters6 = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Base: true,
	atom.Basefont: true, atom.Blockquote: true, atom.Body: true, atom.Caption: true,
	atom.Center: true, atom.Col: true, atom.Colgroup: true, atom.Dd: true,
	atom.Details: true, atom.Dialog: true, atom.Dir: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Fieldset: true, atom.Figcaption: true,
	atom.Figure: true, atom.Footer: true, atom.Form: true, atom.Frame: true,
	atom.Frameset: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Head: true,
	atom.Header: true, atom.Hr: true, atom.Html: true, atom.Iframe: true,
	atom.Legend: true, atom.Li: true, atom.Link: true, atom.Main: true,
	atom.Menu: true, atom.Menuitem: true, atom.Nav: true, atom.Noframes: true,
	atom.Ol: true, atom.Optgroup: true, atom.Option: true, atom.P: true,
	atom.Param: true, atom.Section: true, atom.Summary: true, atom.Table: true,
	atom.Tbody: true, atom.Td: true, atom.Tfoot: true, atom.Th: true,
	atom.Thead: true, atom.Title: true, atom.Tr: true, atom.Track: true, atom.Ul: true,
}

// classifyHTMLBlockStart reports which of the seven HTML block start
// conditions, if any, the bytes at the start of a line (beginning with
// "<") satisfy. The returned int matches the condition number from the
// CommonMark specification; 0 means no condition matched.
func classifyHTMLBlockStart(line []byte) int {
	if len(line) < 2 {
		return 0
	}
	rest := line[1:]
	switch {
	case hasCaseInsensitivePrefix(rest, "!--"):
		return 2
	case hasCaseInsensitivePrefix(rest, "?"):
		return 3
	case hasCaseInsensitivePrefix(rest, "![CDATA["):
		return 5
	case len(rest) > 0 && rest[0] == '!' && len(rest) > 1 && isASCIILetter(rest[1]):
		return 4
	}

	closing := false
	tagBytes := rest
	if len(tagBytes) > 0 && tagBytes[0] == '/' {
		closing = true
		tagBytes = tagBytes[1:]
	}
	name, tagRest := scanTagName(tagBytes)
	if name == "" {
		return 0
	}
	if name == "script" || name == "pre" || name == "style" || name == "textarea" {
		return 1
	}
	a := atom.Lookup(bytes.ToLower([]byte(name)))
	if htmlBlockStarters6[a] {
		return 6
	}
	// Condition 7: any other complete open or closing tag, alone on its
	// line apart from whitespace, not a script/pre/style tag. Attributes
	// are not parsed: only a tag name followed directly by ">" (or "/>"
	// for an open tag) satisfies this condition.
	trimmed := bytes.TrimRight(tagRest, " \t")
	if closing {
		if bytes.Equal(trimmed, []byte(">")) {
			return 7
		}
		return 0
	}
	if bytes.Equal(trimmed, []byte("/>")) || bytes.Equal(trimmed, []byte(">")) {
		return 7
	}
	return 0
}

func scanTagName(b []byte) (name string, rest []byte) {
	i := 0
	for i < len(b) && (isASCIILetter(b[i]) || (i > 0 && (isASCIIDigit(b[i]) || b[i] == '-'))) {
		i++
	}
	if i == 0 {
		return "", b
	}
	return string(bytes.ToLower(b[:i])), b[i:]
}

func isASCIILetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func hasCaseInsensitivePrefix(b []byte, prefix string) bool {
	if len(b) < len(prefix) {
		return false
	}
	return bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}
