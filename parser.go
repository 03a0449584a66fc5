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

// Package streammd incrementally parses CommonMark, with GFM pipe table
// support, into a typed, span-based abstract syntax tree.
//
// A [Parser] is fed successive chunks of input through [Parser.Parse]. It
// maintains the open block tree and any buffered partial line across
// calls, returning only the top-level blocks that became fully closed as
// a result of the chunk just fed.
package streammd

// Parser incrementally parses Markdown text. The zero value is not
// ready to use; construct one with [NewParser].
type Parser struct {
	splitter lineSplitter
	lineno   int

	buf        []byte
	windowBase int

	doc           *Block
	topStartLines []int

	refs ReferenceMap
}

// NewParser returns a new, empty Parser.
func NewParser() *Parser {
	return &Parser{
		doc:  &Block{kind: documentKind, open: true},
		refs: make(ReferenceMap),
	}
}

// References returns the link reference definitions collected so far.
// The returned map is owned by the Parser and must not be modified.
func (p *Parser) References() ReferenceMap {
	return p.refs
}

// Parse feeds chunk to the parser. If stream is true, chunk may end
// mid-line; the remainder is buffered and completed by a later call. If
// stream is false, any buffered partial line and every still-open block
// is forced to close, and Parse returns every remaining top-level block.
//
// Parse returns only the top-level blocks that newly closed as a result
// of this call: blocks returned by an earlier call are never returned
// again, and a block that is still open at the end of this call (only
// possible when stream is true) is held back until a later call closes
// it.
func (p *Parser) Parse(chunk []byte, stream bool) []*RootBlock {
	lines := p.splitter.split(chunk, stream)
	for _, line := range lines {
		off := p.windowBase + len(p.buf)
		p.buf = append(p.buf, line...)
		p.feedLine(line, off)
	}
	if !stream {
		p.closeAll()
	}
	return p.harvest()
}

func (p *Parser) bytesAt(span Span) []byte {
	return p.buf[span.Start-p.windowBase : span.End-p.windowBase]
}

// closeAll force-closes every block still open, as happens at end of
// input in non-streaming mode.
func (p *Parser) closeAll() {
	lp := &lineParser{p: p}
	var closeChain func(b *Block)
	closeChain = func(b *Block) {
		child := b.lastChild()
		if child != nil && child.isOpen() {
			closeChain(child)
			child.close(lp)
		}
	}
	closeChain(p.doc)
}

// harvest converts every newly-closed top-level block into a *RootBlock
// and slides the parser's buffer window past it.
func (p *Parser) harvest() []*RootBlock {
	n := len(p.doc.blockChildren)
	end := n
	if n > 0 && p.doc.blockChildren[n-1].isOpen() {
		end = n - 1
	}
	if end == 0 {
		return nil
	}

	// Rebase every block in this batch and extract its reference
	// definitions before tokenizing any of them, so a definition in a
	// later root block can still resolve a link in an earlier one.
	out := make([]*RootBlock, 0, end)
	for i := 0; i < end; i++ {
		out = append(out, p.prepareRoot(p.doc.blockChildren[i], p.topStartLines[i]))
	}
	for _, root := range out {
		tokenizeBlockTree(root.Source, &root.Block, p.refs)
	}

	p.doc.blockChildren = p.doc.blockChildren[end:]
	p.topStartLines = p.topStartLines[end:]

	var newBase int
	if len(p.doc.blockChildren) > 0 {
		newBase = p.doc.blockChildren[0].span.Start
	} else {
		newBase = p.windowBase + len(p.buf)
	}
	p.buf = p.buf[newBase-p.windowBase:]
	p.windowBase = newBase

	return out
}

// prepareRoot rebases a harvested top-level block's spans to be relative
// to its own Source and runs the reference-definition sweep. Tokenizing
// its deferred inline content is deferred to a later pass over the whole
// harvest batch, so that link reference definitions anywhere in the batch
// are visible to every root block's link resolution, not just blocks that
// precede them.
func (p *Parser) prepareRoot(b *Block, startLine int) *RootBlock {
	delta := b.span.Start
	s, e := b.span.Start-p.windowBase, b.span.End-p.windowBase
	source := p.buf[s:e:e]

	rebaseBlock(b, delta)
	p.refs.Extract(source, b)

	return &RootBlock{Block: *b, Source: source, StartLine: startLine}
}

func rebaseBlock(b *Block, delta int) {
	b.span.Start -= delta
	b.span.End -= delta
	if b.infoString.IsValid() {
		b.infoString.Start -= delta
		b.infoString.End -= delta
	}
	for _, c := range b.blockChildren {
		rebaseBlock(c, delta)
	}
	for _, in := range b.inlineChildren {
		rebaseInline(in, delta)
	}
}

func rebaseInline(in *Inline, delta int) {
	in.span.Start -= delta
	in.span.End -= delta
	for _, c := range in.children {
		rebaseInline(c, delta)
	}
}
