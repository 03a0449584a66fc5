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

// Package render converts parsed streammd documents into HTML.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go4.org/bytereplacer"
	"golang.org/x/net/html/atom"

	"github.com/streammd/streammd"
)

// htmlEscaper replaces the five characters HTML requires escaped inside
// text content and quoted attribute values.
var htmlEscaper = bytereplacer.New(
	"&", "&amp;",
	`'`, "&#39;",
	`<`, "&lt;",
	`>`, "&gt;",
	`"`, "&quot;",
)

// An HTMLRenderer converts fully parsed streammd blocks into HTML.
//
// # Security considerations
//
// CommonMark permits raw HTML, which can introduce cross-site scripting
// vulnerabilities when rendering untrusted input. Set IgnoreRaw to drop
// raw HTML entirely, or FilterTag to neutralize specific tag names while
// still showing their source text (combine with an HTML sanitizer for
// untrusted input).
type HTMLRenderer struct {
	// SoftBreakBehavior determines how soft line breaks are rendered.
	SoftBreakBehavior SoftBreakBehavior
	// IgnoreRaw, if true, drops HTML blocks and raw inline HTML entirely.
	IgnoreRaw bool
	// FilterTag, if not nil, reports whether an element with the given
	// lowercase tag name should have its leading angle bracket escaped.
	FilterTag func(tag []byte) bool
}

// SoftBreakBehavior enumerates rendering styles for soft line breaks.
type SoftBreakBehavior int

// Soft line break rendering styles.
const (
	SoftBreakPreserve SoftBreakBehavior = iota
	SoftBreakSpace
	SoftBreakHarden
)

// RenderHTML writes blocks to w as HTML using the default [HTMLRenderer]
// options. Link and image destinations are already resolved by the
// parser, so no reference map is needed here.
func RenderHTML(w io.Writer, blocks []*streammd.RootBlock) error {
	return (&HTMLRenderer{}).Render(w, blocks)
}

// Render writes the given sequence of parsed blocks to w as HTML.
func (r *HTMLRenderer) Render(w io.Writer, blocks []*streammd.RootBlock) error {
	var buf []byte
	for i, b := range blocks {
		buf = buf[:0]
		if i > 0 {
			buf = append(buf, "\n\n"...)
		}
		buf = r.AppendBlock(buf, b)
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("render markdown to html: %w", err)
		}
	}
	return nil
}

// AppendBlock appends the rendered HTML of a fully parsed block to dst and
// returns the resulting byte slice.
func (r *HTMLRenderer) AppendBlock(dst []byte, block *streammd.RootBlock) []byte {
	state := &renderState{HTMLRenderer: r, dst: dst}
	state.block(block.Source, &block.Block)
	return state.dst
}

type renderState struct {
	*HTMLRenderer
	dst []byte
}

func (r *renderState) openTagAttr(name atom.Atom) {
	start := len(r.dst)
	r.dst = append(r.dst, '<')
	r.dst = append(r.dst, name.String()...)
	if r.FilterTag != nil && r.FilterTag(r.dst[start+1:]) {
		r.dst = r.dst[:start]
		r.dst = append(r.dst, "&lt;"...)
		r.dst = append(r.dst, name.String()...)
	}
}

func (r *renderState) openTag(name atom.Atom) {
	r.openTagAttr(name)
	r.dst = append(r.dst, '>')
}

func (r *renderState) closeTag(name atom.Atom) {
	start := len(r.dst)
	r.dst = append(r.dst, "</"...)
	r.dst = append(r.dst, name.String()...)
	if r.FilterTag != nil && r.FilterTag(r.dst[start+2:]) {
		r.dst = r.dst[:start]
		r.dst = append(r.dst, "&lt;/"...)
		r.dst = append(r.dst, name.String()...)
	}
	r.dst = append(r.dst, '>')
}

func headingTag(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	default:
		return atom.H6
	}
}

func (r *renderState) block(source []byte, block *streammd.Block) {
	switch block.Kind() {
	case streammd.ParagraphKind:
		r.openTag(atom.P)
		r.inlineChildren(source, block)
		r.closeTag(atom.P)
	case streammd.ThematicBreakKind:
		r.openTag(atom.Hr)
	case streammd.ATXHeadingKind, streammd.SetextHeadingKind:
		tagName := headingTag(block.HeadingLevel())
		r.openTag(tagName)
		r.inlineChildren(source, block)
		r.closeTag(tagName)
	case streammd.IndentedCodeBlockKind, streammd.FencedCodeBlockKind:
		r.openTag(atom.Pre)
		r.openTagAttr(atom.Code)
		if info := block.InfoString(); info.IsValid() && info.Len() > 0 {
			words := strings.Fields(string(info.Slice(source)))
			if len(words) > 0 {
				r.dst = append(r.dst, ` class="language-`...)
				r.dst = append(r.dst, htmlEscaper.Replace([]byte(words[0]))...)
				r.dst = append(r.dst, `"`...)
			}
		}
		r.dst = append(r.dst, ">"...)
		r.inlineChildren(source, block)
		r.closeTag(atom.Code)
		r.closeTag(atom.Pre)
	case streammd.BlockQuoteKind:
		r.openTag(atom.Blockquote)
		r.blockChildren(source, block, false)
		r.closeTag(atom.Blockquote)
	case streammd.ListKind:
		var tagName atom.Atom
		if block.IsOrderedList() {
			tagName = atom.Ol
			r.openTagAttr(tagName)
			children := block.BlockChildren()
			if len(children) > 0 {
				if n := children[0].ListItemNumber(); n != 0 && n != 1 {
					r.dst = append(r.dst, ` start="`...)
					r.dst = strconv.AppendInt(r.dst, int64(n), 10)
					r.dst = append(r.dst, `"`...)
				}
			}
			r.dst = append(r.dst, ">"...)
		} else {
			tagName = atom.Ul
			r.openTag(tagName)
		}
		r.blockChildren(source, block, false)
		r.closeTag(tagName)
	case streammd.ListItemKind:
		r.openTag(atom.Li)
		r.blockChildren(source, block, block.IsTightList())
		r.closeTag(atom.Li)
	case streammd.HTMLBlockKind:
		if !r.IgnoreRaw {
			r.inlineChildren(source, block)
		}
	case streammd.TableKind:
		r.table(source, block)
	}
}

func (r *renderState) blockChildren(source []byte, parent *streammd.Block, tight bool) {
	for _, c := range parent.BlockChildren() {
		if tight && c.Kind() == streammd.ParagraphKind {
			r.inlineChildren(source, c)
		} else {
			r.block(source, c)
		}
	}
}

func (r *renderState) inlineChildren(source []byte, parent *streammd.Block) {
	for _, c := range parent.InlineChildren() {
		r.inline(source, c)
	}
}

func (r *renderState) table(source []byte, table *streammd.Block) {
	align := table.TableAlignment()
	r.openTag(atom.Table)
	rows := table.BlockChildren()
	if len(rows) == 0 {
		r.closeTag(atom.Table)
		return
	}
	r.openTag(atom.Thead)
	r.tableRow(source, rows[0], align, atom.Th)
	r.closeTag(atom.Thead)
	if len(rows) > 1 {
		r.openTag(atom.Tbody)
		for _, row := range rows[1:] {
			r.tableRow(source, row, align, atom.Td)
		}
		r.closeTag(atom.Tbody)
	}
	r.closeTag(atom.Table)
}

func (r *renderState) tableRow(source []byte, row *streammd.Block, align []streammd.CellAlignment, cellTag atom.Atom) {
	r.openTag(atom.Tr)
	for i, cell := range row.BlockChildren() {
		r.openTagAttr(cellTag)
		if i < len(align) {
			switch align[i] {
			case streammd.AlignLeft:
				r.dst = append(r.dst, ` align="left"`...)
			case streammd.AlignCenter:
				r.dst = append(r.dst, ` align="center"`...)
			case streammd.AlignRight:
				r.dst = append(r.dst, ` align="right"`...)
			}
		}
		r.dst = append(r.dst, '>')
		r.inlineChildren(source, cell)
		r.closeTag(cellTag)
	}
	r.closeTag(atom.Tr)
}

func (r *renderState) inline(source []byte, inline *streammd.Inline) {
	const hardLineBreak = "<br>\n"
	switch inline.Kind() {
	case streammd.TextKind, streammd.UnparsedKind:
		r.appendEscaped(inline.Text(source))
	case streammd.CharacterReferenceKind:
		if lit, ok := inline.Literal(); ok {
			r.appendEscaped([]byte(lit))
		} else {
			r.dst = append(r.dst, inline.Text(source)...)
		}
	case streammd.RawHTMLKind, streammd.HTMLTagKind:
		if !r.IgnoreRaw {
			raw := inline.Text(source)
			if r.FilterTag == nil {
				r.dst = append(r.dst, raw...)
			} else {
				r.filterRaw(raw)
			}
		}
	case streammd.SoftLineBreakKind:
		switch r.SoftBreakBehavior {
		case SoftBreakHarden:
			r.dst = append(r.dst, hardLineBreak...)
		case SoftBreakSpace:
			r.dst = append(r.dst, ' ')
		default:
			r.dst = append(r.dst, '\n')
		}
	case streammd.HardLineBreakKind:
		r.dst = append(r.dst, hardLineBreak...)
	case streammd.EmphasisKind:
		r.openTag(atom.Em)
		r.inlineKids(source, inline)
		r.closeTag(atom.Em)
	case streammd.StrongKind:
		r.openTag(atom.Strong)
		r.inlineKids(source, inline)
		r.closeTag(atom.Strong)
	case streammd.CodeSpanKind:
		r.openTag(atom.Code)
		if lit, ok := inline.Literal(); ok {
			r.appendEscaped([]byte(lit))
		}
		r.closeTag(atom.Code)
	case streammd.LinkKind:
		dest := inline.LinkDestination()
		title, titleOK := inline.LinkTitle()
		r.openTagAttr(atom.A)
		r.dst = append(r.dst, ` href="`...)
		r.appendEscaped([]byte(streammd.NormalizeURI(dest)))
		r.dst = append(r.dst, `"`...)
		if titleOK {
			r.dst = append(r.dst, ` title="`...)
			r.appendEscaped([]byte(title))
			r.dst = append(r.dst, `"`...)
		}
		r.dst = append(r.dst, ">"...)
		r.inlineKids(source, inline)
		r.closeTag(atom.A)
	case streammd.ImageKind:
		dest := inline.LinkDestination()
		title, titleOK := inline.LinkTitle()
		r.openTagAttr(atom.Img)
		r.dst = append(r.dst, ` src="`...)
		r.appendEscaped([]byte(streammd.NormalizeURI(dest)))
		r.dst = append(r.dst, `"`...)
		if titleOK {
			r.dst = append(r.dst, ` title="`...)
			r.appendEscaped([]byte(title))
			r.dst = append(r.dst, `"`...)
		}
		r.dst = appendAltText(r.dst, source, inline)
		r.dst = append(r.dst, ">"...)
	case streammd.AutolinkKind:
		destination := inline.LinkDestination()
		r.openTagAttr(atom.A)
		r.dst = append(r.dst, ` href="`...)
		if streammd.IsEmailAddress(destination) {
			r.dst = append(r.dst, "mailto:"...)
		}
		r.appendEscaped([]byte(streammd.NormalizeURI(destination)))
		r.dst = append(r.dst, `">`...)
		r.appendEscaped([]byte(destination))
		r.closeTag(atom.A)
	}
}

func (r *renderState) inlineKids(source []byte, parent *streammd.Inline) {
	for _, c := range parent.Children() {
		r.inline(source, c)
	}
}

func (r *renderState) appendEscaped(b []byte) {
	r.dst = append(r.dst, htmlEscaper.Replace(b)...)
}

// appendAltText flattens an image's inline children into the plain text
// required for its alt attribute.
func appendAltText(dst []byte, source []byte, parent *streammd.Inline) []byte {
	var sb strings.Builder
	var walk func(in *streammd.Inline)
	walk = func(in *streammd.Inline) {
		switch in.Kind() {
		case streammd.TextKind, streammd.UnparsedKind:
			sb.Write(in.Text(source))
		case streammd.CharacterReferenceKind:
			if lit, ok := in.Literal(); ok {
				sb.WriteString(lit)
			}
		case streammd.SoftLineBreakKind, streammd.HardLineBreakKind:
			sb.WriteByte(' ')
		case streammd.LinkDestinationKind, streammd.LinkTitleKind, streammd.LinkLabelKind:
		default:
			for _, c := range in.Children() {
				walk(c)
			}
		}
	}
	for _, c := range parent.Children() {
		walk(c)
	}
	dst = append(dst, ` alt="`...)
	dst = append(dst, htmlEscaper.Replace([]byte(sb.String()))...)
	dst = append(dst, `"`...)
	return dst
}

// filterRaw performs the tag filtering described by the GFM tagfilter
// extension. It cannot use a conventional HTML parser, since raw HTML in
// Markdown may be incomplete or start in the middle of a tag.
func (r *renderState) filterRaw(rawHTML []byte) {
	copyStart := 0
	for i := 0; i < len(rawHTML); {
		if rawHTML[i] != '<' {
			i++
			continue
		}
		tagNameStart := i + 1
		if bytes.HasPrefix(rawHTML[tagNameStart:], []byte("/")) {
			tagNameStart++
		}
		tagEnd := len(rawHTML)
		if j := bytes.IndexByte(rawHTML[tagNameStart:], '>'); j >= 0 {
			tagEnd = tagNameStart + j + 1
		}
		nameEnd := tagNameStart
		for nameEnd < tagEnd && isTagNameByte(rawHTML[nameEnd]) {
			nameEnd++
		}
		tagName := bytes.ToLower(rawHTML[tagNameStart:nameEnd])
		if r.FilterTag(tagName) {
			r.dst = append(r.dst, rawHTML[copyStart:i]...)
			r.dst = append(r.dst, "&lt;"...)
			r.dst = append(r.dst, rawHTML[i+1:tagEnd]...)
			copyStart = tagEnd
		}
		i = tagEnd
	}
	r.dst = append(r.dst, rawHTML[copyStart:]...)
}

func isTagNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-'
}

// FilterTagGFM performs the same tag filtering as the GitHub Flavored
// Markdown tagfilter extension. It is suitable for use as FilterTag in
// [HTMLRenderer].
func FilterTagGFM(tag []byte) bool {
	tagAtom := atom.Lookup(tag)
	return tagAtom == atom.Title ||
		tagAtom == atom.Textarea ||
		tagAtom == atom.Style ||
		tagAtom == atom.Xmp ||
		tagAtom == atom.Iframe ||
		tagAtom == atom.Noembed ||
		tagAtom == atom.Noframes ||
		tagAtom == atom.Script ||
		tagAtom == atom.Plaintext
}
