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

// BlockKind identifies the kind of a [Block].
type BlockKind uint8

// Block kinds.
const (
	ParagraphKind BlockKind = 1 + iota
	ThematicBreakKind
	ATXHeadingKind
	SetextHeadingKind
	IndentedCodeBlockKind
	FencedCodeBlockKind
	HTMLBlockKind
	LinkReferenceDefinitionKind
	BlockQuoteKind
	ListItemKind
	ListKind
	TableKind
	TableHeadKind
	TableRowKind
	TableCellKind

	// documentKind is a pseudo-kind used only as the root of the open block
	// tree during parsing. It is never exposed on a harvested [RootBlock]:
	// a RootBlock's Kind is always one of the kinds above.
	documentKind
)

var blockKindNames = [...]string{
	ParagraphKind:                "ParagraphKind",
	ThematicBreakKind:            "ThematicBreakKind",
	ATXHeadingKind:               "ATXHeadingKind",
	SetextHeadingKind:            "SetextHeadingKind",
	IndentedCodeBlockKind:        "IndentedCodeBlockKind",
	FencedCodeBlockKind:          "FencedCodeBlockKind",
	HTMLBlockKind:                "HTMLBlockKind",
	LinkReferenceDefinitionKind:  "LinkReferenceDefinitionKind",
	BlockQuoteKind:               "BlockQuoteKind",
	ListItemKind:                 "ListItemKind",
	ListKind:                     "ListKind",
	TableKind:                    "TableKind",
	TableHeadKind:                "TableHeadKind",
	TableRowKind:                 "TableRowKind",
	TableCellKind:                "TableCellKind",
	documentKind:                 "documentKind",
}

func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) && blockKindNames[k] != "" {
		return blockKindNames[k]
	}
	return "BlockKind(" + strconv.Itoa(int(k)) + ")"
}

// IsCode reports whether k is [IndentedCodeBlockKind] or
// [FencedCodeBlockKind].
func (k BlockKind) IsCode() bool {
	return k == IndentedCodeBlockKind || k == FencedCodeBlockKind
}

// IsHeading reports whether k is [ATXHeadingKind] or [SetextHeadingKind].
func (k BlockKind) IsHeading() bool {
	return k == ATXHeadingKind || k == SetextHeadingKind
}

// CellAlignment is the alignment of a table column, as declared by its
// delimiter row.
type CellAlignment int8

// Table cell alignments.
const (
	AlignNone CellAlignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Block is a single node in a document's block tree. The zero value is not
// a valid Block; blocks are created by the parser.
type Block struct {
	kind BlockKind
	span Span
	root *RootBlock

	blockChildren  []*Block
	inlineChildren []*Inline

	open          bool
	lastLineBlank bool

	// indent is the number of columns of content indent a child line must
	// have to continue a list item; for a fenced code block it is the
	// opening fence's indentation, stripped from each content line.
	indent int
	// n carries kind-specific integer data: heading level for
	// ATX/Setext headings, fence length for fenced code blocks, ordered
	// list start number for ListKind/ListItemKind.
	n int
	// char carries kind-specific byte data: the bullet character of an
	// unordered list marker (0 for ordered lists, whose delimiter is in
	// delim), the fence character of a fenced code block, or the start
	// condition number (1-7) of an HTML block.
	char byte
	// delim is the ordered-list delimiter ('.' or ')') for ListKind and
	// ListItemKind blocks.
	delim byte

	listLoose bool

	infoString Span

	tableAlign []CellAlignment
}

// Kind returns the block's kind.
func (b *Block) Kind() BlockKind {
	return b.kind
}

// Span returns the block's byte span within its [RootBlock]'s Source.
func (b *Block) Span() Span {
	return b.span
}

// ChildCount returns the number of children the block has. A block has
// either block children or inline children, never both.
func (b *Block) ChildCount() int {
	if len(b.blockChildren) > 0 {
		return len(b.blockChildren)
	}
	return len(b.inlineChildren)
}

// Child returns the i'th child of the block as a [Node].
func (b *Block) Child(i int) Node {
	if len(b.blockChildren) > 0 {
		return b.blockChildren[i].AsNode()
	}
	return b.inlineChildren[i].AsNode()
}

// BlockChildren returns the block's direct block-kind children, or nil if
// it holds inline content instead.
func (b *Block) BlockChildren() []*Block {
	return b.blockChildren
}

// InlineChildren returns the block's direct inline-kind children, or nil
// if it holds block content instead.
func (b *Block) InlineChildren() []*Inline {
	return b.inlineChildren
}

// Text returns the raw source bytes of the block's span.
func (b *Block) Text(source []byte) []byte {
	return spanSlice(source, b.span)
}

// HeadingLevel returns the heading level (1-6) for ATX and Setext
// headings, or 0 for any other kind.
func (b *Block) HeadingLevel() int {
	if !b.kind.IsHeading() {
		return 0
	}
	return b.n
}

// IsOrderedList reports whether the block is an ordered [ListKind] or
// [ListItemKind].
func (b *Block) IsOrderedList() bool {
	return (b.kind == ListKind || b.kind == ListItemKind) && b.char == 0
}

// IsTightList reports whether a [ListKind] block, or a [ListItemKind]
// block of such a list, is tight.
func (b *Block) IsTightList() bool {
	return (b.kind == ListKind || b.kind == ListItemKind) && !b.listLoose
}

// ListItemNumber returns the ordinal of an ordered list item, or the
// start number of an ordered [ListKind].
func (b *Block) ListItemNumber() int {
	return b.n
}

// ListBullet returns the bullet character ('*', '-', or '+') of an
// unordered [ListKind] or [ListItemKind], or 0 if the list is ordered.
func (b *Block) ListBullet() byte {
	return b.char
}

// ListDelimiter returns the delimiter ('.' or ')') of an ordered
// [ListKind] or [ListItemKind], or 0 if the list is unordered.
func (b *Block) ListDelimiter() byte {
	return b.delim
}

// InfoString returns the span of a fenced code block's info string, or an
// invalid span for any other kind.
func (b *Block) InfoString() Span {
	if b.kind != FencedCodeBlockKind {
		return NullSpan()
	}
	return b.infoString
}

// TableAlignment returns the alignment of the table's columns. Only valid
// for [TableKind] blocks.
func (b *Block) TableAlignment() []CellAlignment {
	return b.tableAlign
}

func (b *Block) firstChild() *Block {
	if len(b.blockChildren) == 0 {
		return nil
	}
	return b.blockChildren[0]
}

func (b *Block) lastChild() *Block {
	if len(b.blockChildren) == 0 {
		return nil
	}
	return b.blockChildren[len(b.blockChildren)-1]
}

func (b *Block) isOpen() bool {
	return b.open
}

// close finalizes b, running the kind-specific onClose hook if one is
// registered, and marks b no longer open.
func (b *Block) close(lp *lineParser) {
	if !b.open {
		panic("streammd: close of already-closed block")
	}
	if rule, ok := blockRules[b.kind]; ok && rule.onClose != nil {
		rule.onClose(lp, b)
	}
	b.open = false
}

// RootBlock is a top-level block in a document, together with the portion
// of the source it was parsed from.
//
// Source holds exactly the bytes that make up this root block and its
// descendants; all [Span] values reachable from Block are offsets into
// Source, not into the overall stream fed to [Parser.Parse].
type RootBlock struct {
	Block
	Source []byte

	// StartLine is the 1-based input line number of the first line of
	// this root block.
	StartLine int
}
