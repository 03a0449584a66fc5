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

import "bytes"

// blockRule is the per-kind dispatch table entry, mirroring the
// teacher's struct-of-function-pointers design: a block kind's behavior
// is data, not a type switch scattered through the engine.
type blockRule struct {
	// match reports whether the current line continues an already-open
	// block b, consuming the continuation marker (e.g. a blockquote's
	// ">") from lp as a side effect.
	match func(lp *lineParser, b *Block) bool
	// onClose runs kind-specific finalization when a block of this kind
	// is closed (computing list tightness, peeling reference
	// definitions out of a paragraph, and so on).
	onClose func(lp *lineParser, b *Block)
	// canContain reports whether a block of this kind may directly
	// contain a new block of the given kind.
	canContain func(kind BlockKind) bool
	// acceptsLines reports whether an open block of this kind accepts
	// further lines verbatim as more of itself (paragraphs, code
	// blocks) rather than requiring blockStarts to reopen it.
	acceptsLines func(kind BlockKind) bool
}

var blockRules map[BlockKind]blockRule

func init() {
	blockRules = map[BlockKind]blockRule{
		documentKind: {
			canContain: func(kind BlockKind) bool { return true },
		},
		BlockQuoteKind: {
			match:      matchBlockQuote,
			canContain: func(kind BlockKind) bool { return kind != TableHeadKind && kind != TableRowKind && kind != TableCellKind },
		},
		ListKind: {
			match:      func(lp *lineParser, b *Block) bool { return true },
			canContain: func(kind BlockKind) bool { return kind == ListItemKind },
			onClose:    onCloseList,
		},
		ListItemKind: {
			match:      matchListItem,
			canContain: func(kind BlockKind) bool { return kind != TableHeadKind && kind != TableRowKind && kind != TableCellKind },
		},
		ParagraphKind: {
			match:        func(lp *lineParser, b *Block) bool { return !lp.blank },
			acceptsLines: func(kind BlockKind) bool { return kind == ParagraphKind },
			onClose:      onCloseParagraph,
		},
		IndentedCodeBlockKind: {
			match:        matchIndentedCode,
			acceptsLines: func(kind BlockKind) bool { return kind == IndentedCodeBlockKind },
		},
		FencedCodeBlockKind: {
			match:        matchFencedCode,
			acceptsLines: func(kind BlockKind) bool { return kind == FencedCodeBlockKind },
		},
		HTMLBlockKind: {
			match:        matchHTMLBlock,
			acceptsLines: func(kind BlockKind) bool { return kind == HTMLBlockKind },
		},
		ATXHeadingKind:     {},
		SetextHeadingKind:  {},
		ThematicBreakKind:  {},
		LinkReferenceDefinitionKind: {},
		TableKind: {
			match:      func(lp *lineParser, b *Block) bool { return !lp.blank },
			canContain: func(kind BlockKind) bool { return kind == TableHeadKind || kind == TableRowKind },
		},
		TableHeadKind: {
			canContain: func(kind BlockKind) bool { return kind == TableCellKind },
		},
		TableRowKind: {
			canContain: func(kind BlockKind) bool { return kind == TableCellKind },
		},
		TableCellKind: {},
	}
}

// blockStart is one entry of the ordered list of new-block recognizers
// tried during phase 2 of the per-line algorithm.
type blockStart struct {
	kind BlockKind
	open func(lp *lineParser) bool
}

var blockStarts []blockStart

func init() {
	blockStarts = []blockStart{
		{BlockQuoteKind, openBlockQuote},
		{ATXHeadingKind, openATXHeading},
		{FencedCodeBlockKind, openFencedCodeBlock},
		{HTMLBlockKind, openHTMLBlock},
		{SetextHeadingKind, openSetextHeading},
		{TableKind, openTable},
		{TableRowKind, openTableRow},
		{ThematicBreakKind, openThematicBreak},
		{ListItemKind, openListItem},
		{IndentedCodeBlockKind, openIndentedCode},
	}
}

// openTableRow opens (and immediately closes, being exactly one line) a
// new row of an already-open table.
func openTableRow(lp *lineParser) bool {
	if lp.container.kind != TableKind || lp.blank {
		return false
	}
	cells := splitTableRow(lp.restBytesTrimEOL())
	row := &Block{kind: TableRowKind, span: Span{Start: lp.globalPos(), End: lp.off + len(lp.line)}}
	lp.container.blockChildren = append(lp.container.blockChildren, row)
	appendTableCells(row, lp.globalPos(), cells)
	lp.i = len(lp.line)
	return true
}

// --- blockquote ---

func matchBlockQuote(lp *lineParser, b *Block) bool {
	if lp.indent() >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(3)
	if lp.current() != '>' {
		*lp = save
		return false
	}
	lp.advance()
	if lp.current() == ' ' || lp.current() == '\t' {
		lp.advance()
	}
	return true
}

func openBlockQuote(lp *lineParser) bool {
	if lp.indent() >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(3)
	if lp.current() != '>' {
		*lp = save
		return false
	}
	lp.advance()
	if lp.current() == ' ' || lp.current() == '\t' {
		lp.advance()
	}
	b := &Block{kind: BlockQuoteKind, span: Span{Start: lp.globalPos(), End: lp.globalPos()}, open: true}
	lp.container.blockChildren = append(lp.container.blockChildren, b)
	lp.container = b
	lp.chain = append(lp.chain, b)
	return true
}

// --- ATX heading ---

func openATXHeading(lp *lineParser) bool {
	if lp.indent() >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(3)
	level := 0
	for lp.current() == '#' && level < 7 {
		lp.advance()
		level++
	}
	if level < 1 || level > 6 {
		*lp = save
		return false
	}
	if !lp.eol() && lp.current() != ' ' && lp.current() != '\t' && lp.current() != '\r' && lp.current() != '\n' {
		*lp = save
		return false
	}
	lp.consumeIndent(1 << 30)
	content := lp.restBytesTrimEOL()
	// Strip a closing sequence of '#' characters.
	end := len(content)
	for end > 0 && content[end-1] == '#' {
		end--
	}
	if end < len(content) && (end == 0 || content[end-1] == ' ' || content[end-1] == '\t') {
		content = content[:end]
	}
	for len(content) > 0 && (content[len(content)-1] == ' ' || content[len(content)-1] == '\t') {
		content = content[:len(content)-1]
	}
	start := lp.globalPos()
	b := &Block{kind: ATXHeadingKind, n: level, open: true,
		span: Span{Start: lp.off, End: lp.off + len(lp.line)}}
	lp.container.blockChildren = append(lp.container.blockChildren, b)
	if len(content) > 0 {
		b.inlineChildren = append(b.inlineChildren, &Inline{
			kind: UnparsedKind,
			span: Span{Start: start, End: start + len(content)},
		})
	}
	b.open = false
	return true
}

// --- thematic break ---

func openThematicBreak(lp *lineParser) bool {
	if lp.indent() >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(3)
	var marker byte
	count := 0
	for !lp.eol() {
		c := lp.current()
		switch c {
		case '-', '_', '*':
			if marker == 0 {
				marker = c
			}
			if c != marker {
				*lp = save
				return false
			}
			count++
			lp.advance()
		case ' ', '\t', '\r', '\n':
			lp.advance()
		default:
			*lp = save
			return false
		}
	}
	if count < 3 {
		*lp = save
		return false
	}
	b := &Block{kind: ThematicBreakKind, span: Span{Start: lp.off, End: lp.off + len(lp.line)}}
	lp.container.blockChildren = append(lp.container.blockChildren, b)
	return true
}

// --- setext heading underline ---

func openSetextHeading(lp *lineParser) bool {
	tip := lp.container.lastChild()
	if tip == nil || !tip.isOpen() || tip.kind != ParagraphKind {
		return false
	}
	if lp.indent() >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(3)
	c := lp.current()
	if c != '=' && c != '-' {
		*lp = save
		return false
	}
	level := 1
	if c == '-' {
		level = 2
	}
	for lp.current() == c {
		lp.advance()
	}
	if !lp.isRestBlank() {
		*lp = save
		return false
	}
	tip.close(lp)
	tip.kind = SetextHeadingKind
	tip.n = level
	tip.span.End = lp.off + len(lp.line)
	return true
}

// --- GFM pipe table ---

func openTable(lp *lineParser) bool {
	tip := lp.container.lastChild()
	if tip == nil || !tip.isOpen() || tip.kind != ParagraphKind || len(tip.inlineChildren) == 0 {
		return false
	}
	if !isSingleLineParagraph(tip) {
		return false
	}
	align, ok := parseTableDelimiterRow(lp.restBytesTrimEOL())
	if !ok {
		return false
	}
	headerLine := tip.inlineChildren[0].span
	headerCells := splitTableRow(lp.p.bytesAt(headerLine))
	if len(headerCells) != len(align) {
		return false
	}
	tip.close(lp)

	table := &Block{kind: TableKind, open: true, tableAlign: align, span: Span{Start: headerLine.Start, End: lp.off + len(lp.line)}}
	lp.container.blockChildren[len(lp.container.blockChildren)-1] = table
	head := &Block{kind: TableHeadKind, span: headerLine}
	table.blockChildren = append(table.blockChildren, head)
	appendTableCells(head, headerLine.Start, headerCells)

	lp.container = table
	lp.chain = append(lp.chain, table)
	return true
}

func appendTableCells(row *Block, base int, cells [][]byte) {
	pos := base
	for _, c := range cells {
		cell := &Block{kind: TableCellKind}
		start := pos
		end := start + len(c)
		cell.span = Span{Start: start, End: end}
		if len(c) > 0 {
			cell.inlineChildren = append(cell.inlineChildren, &Inline{kind: UnparsedKind, span: Span{Start: start, End: end}})
		}
		row.blockChildren = append(row.blockChildren, cell)
		pos = end + 1
	}
}

func isSingleLineParagraph(b *Block) bool {
	n := 0
	for _, in := range b.inlineChildren {
		if in.kind == UnparsedKind {
			n++
		}
	}
	return n == 1
}

// --- indented code block ---

func matchIndentedCode(lp *lineParser, b *Block) bool {
	if lp.blank {
		return true
	}
	return lp.indent() >= 4
}

func openIndentedCode(lp *lineParser) bool {
	if lp.blank || lp.indent() < 4 {
		return false
	}
	tip := lp.container.lastChild()
	if tip != nil && tip.isOpen() && tip.kind == ParagraphKind {
		return false
	}
	lp.consumeIndent(4)
	b := &Block{kind: IndentedCodeBlockKind, open: true, span: Span{Start: lp.globalPos(), End: lp.globalPos()}}
	lp.container.blockChildren = append(lp.container.blockChildren, b)
	lp.container = b
	lp.chain = append(lp.chain, b)
	return true
}

// --- fenced code block ---

func matchFencedCode(lp *lineParser, b *Block) bool {
	if lp.indent() < 4 {
		save := *lp
		lp.consumeIndent(lp.indent())
		if lp.current() == b.char {
			count := 0
			for lp.current() == b.char {
				count++
				lp.advance()
			}
			if count >= b.n && lp.isRestBlank() {
				lp.i = len(lp.line)
				lp.closeTip = true
				return true
			}
		}
		*lp = save
	}
	if b.indent > 0 {
		lp.consumeIndent(b.indent)
	}
	return true
}

func openFencedCodeBlock(lp *lineParser) bool {
	indent := lp.indent()
	if indent >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(indent)
	c := lp.current()
	if c != '`' && c != '~' {
		*lp = save
		return false
	}
	count := 0
	for lp.current() == c {
		count++
		lp.advance()
	}
	if count < 3 {
		*lp = save
		return false
	}
	info := lp.restBytesTrimEOL()
	if c == '`' {
		for _, ch := range info {
			if ch == '`' {
				*lp = save
				return false
			}
		}
	}
	b := &Block{kind: FencedCodeBlockKind, open: true, char: c, n: count, indent: indent,
		span: Span{Start: lp.off, End: lp.off + len(lp.line)}}
	if len(info) > 0 {
		start := lp.globalPos()
		trimmed := trimLeadingSpaceTab(info)
		start += len(info) - len(trimmed)
		b.infoString = Span{Start: start, End: start + len(trimLeadingTrailing(info))}
	}
	lp.container.blockChildren = append(lp.container.blockChildren, b)
	lp.container = b
	lp.chain = append(lp.chain, b)
	lp.i = len(lp.line)
	return true
}

func trimLeadingSpaceTab(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}

func trimLeadingTrailing(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

// --- HTML block (recognizes the seven start conditions and closes on the
// matching end condition, or a blank line for conditions 6 and 7) ---

// htmlBlockEndPatterns1 holds the four closing tags that end an HTML block
// of start condition 1, matched case-insensitively. The end patterns of
// conditions 2-5 are fixed, case-sensitive byte sequences checked directly
// in htmlBlockEndMatches.
var htmlBlockEndPatterns1 = [][]byte{
	[]byte("</script>"), []byte("</pre>"), []byte("</style>"), []byte("</textarea>"),
}

// htmlBlockEndMatches reports whether line contains the end pattern for the
// given start condition. Conditions 6 and 7 have no line-content end
// pattern; they close on a blank line instead, handled by the caller.
func htmlBlockEndMatches(cond int, line []byte) bool {
	switch cond {
	case 1:
		for _, pat := range htmlBlockEndPatterns1 {
			if containsFold(line, pat) {
				return true
			}
		}
		return false
	case 2:
		return bytes.Contains(line, []byte("-->"))
	case 3:
		return bytes.Contains(line, []byte("?>"))
	case 4:
		return bytes.Contains(line, []byte(">"))
	case 5:
		return bytes.Contains(line, []byte("]]>"))
	}
	return false
}

func containsFold(line, pat []byte) bool {
	for i := 0; i+len(pat) <= len(line); i++ {
		if bytes.EqualFold(line[i:i+len(pat)], pat) {
			return true
		}
	}
	return false
}

func matchHTMLBlock(lp *lineParser, b *Block) bool {
	switch b.char {
	case 6, 7: // ends at a blank line
		return !lp.blank
	default: // conditions 1-5: ends when the line matches the end pattern
		if htmlBlockEndMatches(int(b.char), lp.line) {
			lp.closeTip = true
		}
		return true
	}
}

func openHTMLBlock(lp *lineParser) bool {
	if lp.indent() >= 4 {
		return false
	}
	save := *lp
	lp.consumeIndent(3)
	if lp.current() != '<' {
		*lp = save
		return false
	}
	rest := lp.restBytesTrimEOL()
	cond := classifyHTMLBlockStart(rest)
	if cond == 0 {
		*lp = save
		return false
	}
	b := &Block{kind: HTMLBlockKind, open: true, char: byte(cond), span: Span{Start: lp.off, End: lp.off + len(lp.line)}}
	lp.container.blockChildren = append(lp.container.blockChildren, b)
	lp.container = b
	lp.chain = append(lp.chain, b)
	*lp = save
	lp.i = len(lp.line)
	if cond >= 1 && cond <= 5 && htmlBlockEndMatches(cond, rest) {
		lp.closeTip = true
	}
	return true
}
