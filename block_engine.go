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

const tabStopSize = 4

// lineParser is the cursor driven across a single input line as it
// descends the open block tree and, potentially, opens new blocks.
type lineParser struct {
	p    *Parser
	line []byte // raw line bytes, including terminator if any
	off  int    // global offset of line[0]

	i            int // byte index into line
	col          int // column, accounting for tab stops
	tabRemaining int // columns left to consume of a partially-eaten tab

	container *Block   // innermost container matched so far this line
	chain     []*Block // path from document to container, inclusive
	blank     bool

	// closeTip is set by a match function (e.g. a fenced code block
	// recognizing its own closing fence) to request that the tip close
	// once this line has otherwise finished being processed.
	closeTip bool
}

func newLineParser(p *Parser, line []byte, off int) *lineParser {
	return &lineParser{p: p, line: line, off: off, container: p.doc}
}

// globalPos returns the current global byte offset of the cursor.
func (lp *lineParser) globalPos() int {
	return lp.off + lp.i
}

func (lp *lineParser) eol() bool {
	return lp.i >= len(lp.line)
}

func (lp *lineParser) current() byte {
	if lp.eol() {
		return 0
	}
	return lp.line[lp.i]
}

func (lp *lineParser) peek(n int) byte {
	if lp.i+n >= len(lp.line) {
		return 0
	}
	return lp.line[lp.i+n]
}

// advance moves the cursor forward one byte, updating the column
// counting tab stops as tabStopSize-wide.
func (lp *lineParser) advance() {
	if lp.eol() {
		return
	}
	if lp.tabRemaining > 0 {
		lp.tabRemaining--
		lp.col++
		if lp.tabRemaining == 0 {
			lp.i++
		}
		return
	}
	switch lp.line[lp.i] {
	case '\t':
		width := tabStopSize - lp.col%tabStopSize
		lp.tabRemaining = width - 1
		lp.col++
		if lp.tabRemaining == 0 {
			lp.i++
		}
	default:
		lp.i++
		lp.col++
	}
}

// advanceN calls advance n times.
func (lp *lineParser) advanceN(n int) {
	for k := 0; k < n; k++ {
		lp.advance()
	}
}

// indent returns the number of columns of leading whitespace remaining
// from the cursor's current position.
func (lp *lineParser) indent() int {
	save := *lp
	n := 0
	for !lp.eol() && (lp.current() == ' ' || lp.current() == '\t') {
		startCol := lp.col
		lp.advance()
		n += lp.col - startCol
	}
	*lp = save
	return n
}

// consumeIndent advances the cursor past up to n columns of leading
// whitespace, returning the number of columns actually consumed.
func (lp *lineParser) consumeIndent(n int) int {
	consumed := 0
	for consumed < n && !lp.eol() && (lp.current() == ' ' || lp.current() == '\t') {
		startCol := lp.col
		lp.advance()
		consumed += lp.col - startCol
	}
	return consumed
}

// isRestBlank reports whether the remainder of the line (from the cursor)
// is all spaces/tabs/terminator.
func (lp *lineParser) isRestBlank() bool {
	for i := lp.i; i < len(lp.line); i++ {
		switch lp.line[i] {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return false
		}
	}
	return true
}

// restBytes returns the remaining bytes of the line, including
// terminator, from the cursor.
func (lp *lineParser) restBytes() []byte {
	return lp.line[lp.i:]
}

// restBytesTrimEOL returns the remaining bytes of the line from the
// cursor, with any trailing line terminator stripped.
func (lp *lineParser) restBytesTrimEOL() []byte {
	b := lp.restBytes()
	b = trimEOL(b)
	return b
}

func trimEOL(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
	}
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	return b
}

func isBlankLine(line []byte) bool {
	for _, c := range line {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return false
		}
	}
	return true
}

// feedLine runs the two-phase algorithm for one already-appended raw
// line, starting at global offset off.
func (p *Parser) feedLine(line []byte, off int) {
	p.lineno++
	lp := newLineParser(p, line, off)
	lp.blank = isBlankLine(line)

	prevTop := len(p.doc.blockChildren)
	p.descendOpenBlocks(lp)
	p.openNewBlocks(lp)
	p.addLineText(lp)
	for i := prevTop; i < len(p.doc.blockChildren); i++ {
		p.topStartLines = append(p.topStartLines, p.lineno)
	}
}

// descendOpenBlocks is phase 1: walk the rightmost open path from the
// document down, trying to match each container's continuation rule
// against the current line. Containers that stop matching, and
// everything below them, are closed.
func (p *Parser) descendOpenBlocks(lp *lineParser) {
	container := p.doc
	chain := []*Block{container}
	for {
		child := container.lastChild()
		if child == nil || !child.isOpen() {
			break
		}
		rule := blockRules[child.kind]
		if rule.match == nil || !rule.match(lp, child) {
			break
		}
		container = child
		chain = append(chain, container)
	}
	lp.container = container
	lp.chain = chain
	p.closeBelow(lp, container)
}

// closeBelow closes the single still-open descendant chain below
// container, if any (the rightmost-path invariant guarantees a block has
// at most one open child at a time).
func (p *Parser) closeBelow(lp *lineParser, container *Block) {
	child := container.lastChild()
	if child == nil || !child.isOpen() {
		return
	}
	p.closeBelow(lp, child)
	child.close(lp)
}

// openNewBlocks is phase 2: starting from lp.container, repeatedly try to
// open new nested block containers, then decide how the line's remaining
// content attaches (continuing a paragraph, or opening a new leaf block).
func (p *Parser) openNewBlocks(lp *lineParser) {
	for {
		if lp.blank {
			break
		}
		opened := false
		for _, start := range blockStarts {
			rule := blockRules[lp.container.kind]
			if rule.canContain != nil && !rule.canContain(start.kind) {
				continue
			}
			if start.open(lp) {
				opened = true
				break
			}
		}
		if !opened {
			break
		}
	}

	tip := lp.container.lastChild()
	if tip != nil && tip.isOpen() && tip.kind == ParagraphKind {
		// Lazy continuation line: a non-blank line that did not open any
		// new block continues the paragraph, unless the current line
		// could interrupt it (handled by blockStarts above already
		// having had a chance to fire).
		return
	}

	if lp.blank {
		return
	}

	rule := blockRules[lp.container.kind]
	if tip != nil && tip.isOpen() && rule.acceptsLines != nil && rule.acceptsLines(tip.kind) {
		return
	}

	// Nothing open accepts this line as more of itself: open a fresh
	// paragraph leaf under lp.container.
	p.openBlock(lp, ParagraphKind)
}

// openBlock appends and opens a new child block of kind under
// lp.container, and descends lp.container into it.
func (p *Parser) openBlock(lp *lineParser, kind BlockKind) *Block {
	b := &Block{kind: kind, span: Span{Start: lp.globalPos(), End: lp.globalPos()}, open: true}
	lp.container.blockChildren = append(lp.container.blockChildren, b)
	lp.container = b
	lp.chain = append(lp.chain, b)
	return b
}

// addLineText appends the remainder of the current line to the tip of
// the tree as literal content, and propagates the blank-line flag
// upward through every open ancestor for list tightness bookkeeping.
func (p *Parser) addLineText(lp *lineParser) {
	tip := lp.container
	tip.span.End = lp.off + len(lp.line)

	if lp.blank {
		for _, b := range lp.chain {
			b.lastLineBlank = true
		}
		tip.lastLineBlank = true
		return
	}
	tip.lastLineBlank = false

	switch tip.kind {
	case IndentedCodeBlockKind, FencedCodeBlockKind, HTMLBlockKind:
		tip.inlineChildren = append(tip.inlineChildren, &Inline{
			kind: UnparsedKind,
			span: Span{Start: lp.globalPos(), End: lp.off + len(lp.line)},
		})
	case ParagraphKind, SetextHeadingKind, TableCellKind:
		text := lp.restBytesTrimEOL()
		if len(text) > 0 {
			start := lp.globalPos()
			tip.inlineChildren = append(tip.inlineChildren, &Inline{
				kind: UnparsedKind,
				span: Span{Start: start, End: start + len(text)},
			})
			tip.inlineChildren = append(tip.inlineChildren, &Inline{
				kind: SoftLineBreakKind,
				span: Span{Start: start + len(text), End: lp.off + len(lp.line)},
			})
		}
	case ATXHeadingKind, ThematicBreakKind, TableRowKind, TableHeadKind:
		// Single-line blocks: content was already captured when opened.
	}

	if lp.closeTip {
		tip.close(lp)
		lp.closeTip = false
	}
}
