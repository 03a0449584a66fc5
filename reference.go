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
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LinkDefinition is the resolved destination and title of a link
// reference definition.
type LinkDefinition struct {
	Destination string
	Title       string
	TitlePresent bool
}

// ReferenceMap holds the link reference definitions collected from a
// document, keyed by normalized label.
type ReferenceMap map[string]LinkDefinition

var (
	labelLower = cases.Lower(language.Und)
	labelUpper = cases.Upper(language.Und)
)

// NormalizeLabel folds a link label the way link reference matching
// requires: Unicode case folding followed by collapsing interior
// whitespace. Labels are compared after lowercasing and then
// uppercasing, rather than lowercasing alone, so that the map key is
// stable regardless of which case variant is used at the definition
// site versus the reference site.
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	fields := strings.Fields(label)
	label = strings.Join(fields, " ")
	return labelUpper.String(labelLower.String(label))
}

// MatchReference looks up label (not yet normalized) in the map.
func (m ReferenceMap) MatchReference(label string) (LinkDefinition, bool) {
	def, ok := m[NormalizeLabel(label)]
	return def, ok
}

// Extract walks root's subtree collecting LinkReferenceDefinitionKind
// blocks into m, first writer wins.
func (m ReferenceMap) Extract(source []byte, root *Block) {
	var walk func(b *Block)
	walk = func(b *Block) {
		if b.kind == LinkReferenceDefinitionKind {
			label, dest, title, titleOK := decodeLinkReferenceDefinition(source, b)
			key := NormalizeLabel(label)
			if _, exists := m[key]; !exists && key != "" {
				m[key] = LinkDefinition{Destination: dest, Title: title, TitlePresent: titleOK}
			}
			return
		}
		for _, c := range b.blockChildren {
			walk(c)
		}
	}
	walk(root)
}

// decodeLinkReferenceDefinition reads back the label/destination/title
// that onCloseParagraph packed into a LinkReferenceDefinitionKind
// block's inline children as literal strings.
func decodeLinkReferenceDefinition(source []byte, b *Block) (label, dest, title string, titleOK bool) {
	for _, in := range b.inlineChildren {
		lit, _ := in.Literal()
		switch in.kind {
		case LinkLabelKind:
			label = lit
		case LinkDestinationKind:
			dest = lit
		case LinkTitleKind:
			title = lit
			titleOK = true
		}
	}
	return label, dest, title, titleOK
}

// onCloseParagraph peels any leading "[label]: destination 'title'"
// lines from a closing paragraph into sibling LinkReferenceDefinitionKind
// blocks, as CommonMark requires. Each candidate line is handled
// independently; a reference definition spanning a destination or title
// continued onto the next raw line is treated as ending at the first
// line break, which covers the overwhelmingly common single-line form.
func onCloseParagraph(lp *lineParser, b *Block) {
	parent := findParent(lp.p.doc, b)
	if parent == nil {
		return
	}

	lines := paragraphLines(b)
	var defs []*Block
	consumed := 0
	for _, ln := range lines {
		text := lp.p.bytesAt(ln)
		label, dest, title, titleOK, ok := parseLinkReferenceDefinitionLine(text)
		if !ok {
			break
		}
		def := &Block{kind: LinkReferenceDefinitionKind, span: ln}
		appendDecoded(def, label, dest, title, titleOK)
		defs = append(defs, def)
		consumed++
	}
	if consumed == 0 {
		return
	}

	idx := indexOfChild(parent, b)
	if idx < 0 {
		return
	}
	newChildren := make([]*Block, 0, len(parent.blockChildren)+len(defs))
	newChildren = append(newChildren, parent.blockChildren[:idx]...)
	newChildren = append(newChildren, defs...)
	if consumed < len(lines) {
		b.span.Start = lines[consumed].Start
		b.inlineChildren = b.inlineChildren[2*consumed:]
		newChildren = append(newChildren, b)
	}
	newChildren = append(newChildren, parent.blockChildren[idx+1:]...)
	parent.blockChildren = newChildren
}

// appendDecoded stores label/dest/title as a LinkReferenceDefinitionKind
// block's inline children, as decoded literal strings, so Extract can
// read them back without re-parsing or re-slicing Source (whose bytes no
// longer match once angle brackets, quotes, and escapes are stripped).
func appendDecoded(def *Block, label, dest, title string, titleOK bool) {
	def.inlineChildren = append(def.inlineChildren, &Inline{kind: LinkLabelKind, span: def.span, literal: label, literalSet: true})
	def.inlineChildren = append(def.inlineChildren, &Inline{kind: LinkDestinationKind, span: def.span, literal: dest, literalSet: true})
	if titleOK {
		def.inlineChildren = append(def.inlineChildren, &Inline{kind: LinkTitleKind, span: def.span, literal: title, literalSet: true})
	}
}

func paragraphLines(b *Block) []Span {
	var lines []Span
	for _, in := range b.inlineChildren {
		if in.kind == UnparsedKind {
			lines = append(lines, in.span)
		}
	}
	return lines
}

// parseLinkReferenceDefinitionLine parses a single line of the form
// "[label]: destination" optionally followed by a quoted title, as a
// best-effort single-line reference definition.
func parseLinkReferenceDefinitionLine(line []byte) (label, dest, title string, titleOK, ok bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '[' {
		return "", "", "", false, false
	}
	end := -1
	for i := 1; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] == ']' {
			end = i
			break
		}
	}
	if end < 0 || end+1 >= len(line) || line[end+1] != ':' {
		return "", "", "", false, false
	}
	label = string(line[1:end])
	if strings.TrimSpace(label) == "" {
		return "", "", "", false, false
	}
	rest := bytes.TrimSpace(line[end+2:])
	if len(rest) == 0 {
		return "", "", "", false, false
	}

	var destBytes []byte
	i := 0
	if rest[0] == '<' {
		j := bytes.IndexByte(rest[1:], '>')
		if j < 0 {
			return "", "", "", false, false
		}
		destBytes = rest[1 : 1+j]
		i = 1 + j + 1
	} else {
		j := 0
		for j < len(rest) && rest[j] != ' ' && rest[j] != '\t' {
			j++
		}
		destBytes = rest[:j]
		i = j
	}
	dest = string(destBytes)

	remaining := bytes.TrimSpace(rest[i:])
	if len(remaining) >= 2 {
		open, close := remaining[0], remaining[len(remaining)-1]
		if (open == '"' && close == '"') || (open == '\'' && close == '\'') || (open == '(' && close == ')') {
			title = string(remaining[1 : len(remaining)-1])
			titleOK = true
		} else {
			return "", "", "", false, false
		}
	} else if len(remaining) != 0 {
		return "", "", "", false, false
	}
	return label, dest, title, titleOK, true
}

func findParent(root *Block, target *Block) *Block {
	if root == nil {
		return nil
	}
	for _, c := range root.blockChildren {
		if c == target {
			return root
		}
		if p := findParent(c, target); p != nil {
			return p
		}
	}
	return nil
}

func indexOfChild(parent, child *Block) int {
	for i, c := range parent.blockChildren {
		if c == child {
			return i
		}
	}
	return -1
}
