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

import "strconv"

// listMarker describes a parsed bullet or ordered list marker.
type listMarker struct {
	char  byte // '*', '-', '+' for bullets; 0 for ordered
	delim byte // '.' or ')' for ordered markers
	start int  // ordered list start number
	width int  // columns consumed by the marker itself, before its trailing space
}

func (m listMarker) isOrdered() bool {
	return m.char == 0
}

// parseListMarker attempts to parse a list marker at the cursor without
// consuming it. It does not check the "interrupts paragraph" rule; the
// caller does.
func parseListMarker(lp *lineParser) (listMarker, bool) {
	save := *lp
	defer func() { *lp = save }()

	c := lp.current()
	switch c {
	case '*', '-', '+':
		lp.advance()
		if !lp.eol() && lp.current() != ' ' && lp.current() != '\t' && lp.current() != '\r' && lp.current() != '\n' {
			return listMarker{}, false
		}
		return listMarker{char: c, width: 1}, true
	}
	if c < '0' || c > '9' {
		return listMarker{}, false
	}
	start := lp.i
	digits := 0
	for !lp.eol() && lp.current() >= '0' && lp.current() <= '9' && digits < 9 {
		lp.advance()
		digits++
	}
	if lp.current() != '.' && lp.current() != ')' {
		return listMarker{}, false
	}
	delim := lp.current()
	lp.advance()
	if !lp.eol() && lp.current() != ' ' && lp.current() != '\t' && lp.current() != '\r' && lp.current() != '\n' {
		return listMarker{}, false
	}
	n, _ := strconv.Atoi(string(lp.line[start : start+digits]))
	return listMarker{delim: delim, start: n, width: digits + 1}, true
}

func openListItem(lp *lineParser) bool {
	indent := lp.indent()
	if indent >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(indent)
	marker, ok := parseListMarker(lp)
	if !ok {
		*lp = save
		return false
	}

	// A bullet/ordered marker cannot interrupt an open paragraph unless
	// it is a bullet, or an ordered list starting at 1.
	if tip := lp.container.lastChild(); tip != nil && tip.isOpen() && tip.kind == ParagraphKind {
		if marker.isOrdered() && marker.start != 1 {
			*lp = save
			return false
		}
	}

	markerCol := lp.col
	lp.advance() // consume the marker's leading character(s); width tracked via markerCol math below
	for w := 1; w < marker.width; w++ {
		lp.advance()
	}
	markerWidth := lp.col - markerCol

	contentIndentLookahead := lp.indent()
	childIndent := markerWidth + indent
	switch {
	case contentIndentLookahead == 0:
		childIndent += 1
	case contentIndentLookahead > 4:
		childIndent += 1
	default:
		childIndent += contentIndentLookahead
	}
	lp.consumeIndent(contentIndentLookahead)
	if lp.isRestBlank() && contentIndentLookahead > 4 {
		childIndent = markerWidth + indent + 1
	}

	tip := lp.container.lastChild()
	needsNewList := true
	if tip != nil && tip.kind == ListKind {
		lastItem := tip.lastChild()
		if lastItem != nil && sameListType(lastItem, marker) {
			needsNewList = false
		} else if !tip.isOpen() {
			needsNewList = true
		}
	}

	if needsNewList {
		list := &Block{kind: ListKind, open: true, char: marker.char, delim: marker.delim, n: marker.start,
			span: Span{Start: lp.globalPos() - markerWidth - indent, End: lp.globalPos()}}
		lp.container.blockChildren = append(lp.container.blockChildren, list)
		lp.container = list
		lp.chain = append(lp.chain, list)
	} else {
		lp.container = lp.container.lastChild()
	}

	item := &Block{kind: ListItemKind, open: true, char: marker.char, delim: marker.delim, n: marker.start, indent: childIndent,
		span: Span{Start: lp.globalPos() - markerWidth - indent, End: lp.globalPos()}}
	lp.container.blockChildren = append(lp.container.blockChildren, item)
	lp.container = item
	lp.chain = append(lp.chain, item)
	return true
}

func sameListType(item *Block, m listMarker) bool {
	if item.char == 0 && m.char == 0 {
		return item.delim == m.delim
	}
	return item.char == m.char
}

func matchListItem(lp *lineParser, b *Block) bool {
	if lp.blank {
		return true
	}
	if lp.indent() >= b.indent {
		lp.consumeIndent(b.indent)
		return true
	}
	return false
}

// onCloseList computes list tightness: a list is loose if any of its
// items (other than possibly the last) ends with a blank line, or if
// there is a blank line between two items.
func onCloseList(lp *lineParser, list *Block) {
	loose := false
	for i, item := range list.blockChildren {
		if item.lastLineBlank && (i != len(list.blockChildren)-1 || hasBlankBetweenChildren(item)) {
			loose = true
		}
		if itemEndsBlankInternally(item) {
			loose = true
		}
	}
	list.listLoose = loose
	for _, item := range list.blockChildren {
		item.listLoose = loose
	}
}

func hasBlankBetweenChildren(item *Block) bool {
	return len(item.blockChildren) > 1
}

func itemEndsBlankInternally(item *Block) bool {
	for i, child := range item.blockChildren {
		if child.lastLineBlank && i != len(item.blockChildren)-1 {
			return true
		}
	}
	return false
}
