// Copyright 2024 Ross Light
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

// Package format provides a function to format a Markdown file that is
// equivalent to the original Markdown.
package format

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/streammd/streammd"
)

// Format writes the given blocks as CommonMark to the given writer.
func Format(w io.Writer, blocks []*streammd.RootBlock) error {
	type stackFrame struct {
		*streammd.Block
		source []byte
		indent int
	}

	stack := make([]stackFrame, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, stackFrame{
			source: blocks[i].Source,
			Block:  &blocks[i].Block,
		})
	}

	ww := &errWriter{w: w}
	var prevKind streammd.BlockKind
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch k := curr.Kind(); k {
		case streammd.ParagraphKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			formatInlines(ww, curr.source, curr.indent, curr.Block)
			prevKind = streammd.ParagraphKind
		case streammd.ThematicBreakKind:
			if prevKind == 0 {
				// Disambiguate from front matter.
				ww.WriteString("***\n\n")
			} else {
				ww.WriteString("\n---\n\n")
			}
			prevKind = streammd.ThematicBreakKind
		case streammd.ATXHeadingKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			for i := 0; i < curr.HeadingLevel(); i++ {
				ww.WriteString("#")
			}
			ww.WriteString(" ")
			formatInlines(ww, curr.source, curr.indent, curr.Block)
			prevKind = streammd.ATXHeadingKind
		case streammd.SetextHeadingKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			formatInlines(ww, curr.source, curr.indent, curr.Block)
			if curr.HeadingLevel() == 1 {
				ww.WriteString("===\n")
			} else {
				ww.WriteString("---\n")
			}
			prevKind = streammd.SetextHeadingKind
		case streammd.IndentedCodeBlockKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			indentedWrite(ww, curr.indent+4, codeLiteral(curr.source, curr.Block))
			ww.WriteString("\n")
			prevKind = streammd.IndentedCodeBlockKind
		case streammd.FencedCodeBlockKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			ww.WriteString("```")
			if info := curr.InfoString(); info.IsValid() && info.Len() > 0 {
				ww.Write(info.Slice(curr.source))
			}
			ww.WriteString("\n")
			content := codeLiteral(curr.source, curr.Block)
			indentedWrite(ww, curr.indent, content)
			if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
				ww.WriteString("\n")
			}
			ww.WriteString("```\n")
			prevKind = streammd.FencedCodeBlockKind
		case streammd.HTMLBlockKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			indentedWrite(ww, curr.indent, codeLiteral(curr.source, curr.Block))
			prevKind = streammd.HTMLBlockKind
		case streammd.BlockQuoteKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			ww.WriteString("> ")
			// The first child continues the "> " line.
			prevKind = 0
			for i := curr.ChildCount() - 1; i >= 0; i-- {
				stack = append(stack, stackFrame{
					Block:  curr.Child(i).Block(),
					source: curr.source,
					indent: curr.indent + 2,
				})
			}
		case streammd.ListKind:
			if prevKind != 0 && curr.IsTightList() {
				// Individual list items won't contain a blank line,
				// so add them beforehand.
				ww.WriteString("\n")
			}
			for i := curr.ChildCount() - 1; i >= 0; i-- {
				stack = append(stack, stackFrame{
					Block:  curr.Child(i).Block(),
					source: curr.source,
					indent: curr.indent,
				})
			}
		case streammd.ListItemKind:
			if prevKind != 0 && !curr.IsTightList() {
				ww.WriteString("\n")
			}
			marker := listMarkerText(curr.Block)
			ww.Write(marker)
			ww.WriteString(" ")
			extraIndent := len(marker) + 1
			prevKind = streammd.ListItemKind

			children := curr.BlockChildren()
			if curr.IsTightList() && len(children) == 1 && children[0].Kind() == streammd.ParagraphKind {
				formatInlines(ww, curr.source, curr.indent+extraIndent, children[0])
				continue
			}
			// The first child continues the marker's line.
			prevKind = 0
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, stackFrame{
					source: curr.source,
					Block:  children[i],
					indent: curr.indent + extraIndent,
				})
			}
		case streammd.LinkReferenceDefinitionKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			label, dest, title := refDefParts(curr.Block)
			ww.WriteString("[")
			ww.WriteString(label)
			ww.WriteString("]: ")
			ww.WriteString(streammd.NormalizeURI(dest))
			if title != "" {
				ww.WriteString(` "`)
				ww.WriteString(title)
				ww.WriteString(`"`)
			}
			ww.WriteString("\n")
			prevKind = streammd.LinkReferenceDefinitionKind
		case streammd.TableKind:
			if prevKind != 0 {
				ww.WriteString("\n")
			}
			formatTable(ww, curr.source, curr.Block)
			prevKind = streammd.TableKind
		default:
			return fmt.Errorf("format markdown: unhandled block kind %v", k)
		}
	}
	return ww.err
}

func codeLiteral(source []byte, block *streammd.Block) []byte {
	children := block.InlineChildren()
	if len(children) == 0 {
		return nil
	}
	return children[0].Text(source)
}

// listMarkerText reconstructs a list item's marker text from its stored
// bullet/delimiter/ordinal fields, since the parser does not retain a
// separate marker node.
func listMarkerText(item *streammd.Block) []byte {
	if b := item.ListBullet(); b != 0 {
		return []byte{b}
	}
	n := strconv.Itoa(item.ListItemNumber())
	return append([]byte(n), item.ListDelimiter())
}

func refDefParts(def *streammd.Block) (label, dest, title string) {
	for _, in := range def.InlineChildren() {
		lit, _ := in.Literal()
		switch in.Kind() {
		case streammd.LinkLabelKind:
			label = lit
		case streammd.LinkDestinationKind:
			dest = lit
		case streammd.LinkTitleKind:
			title = lit
		}
	}
	return label, dest, title
}

func formatInlines(w *errWriter, source []byte, indent int, block *streammd.Block) {
	for _, child := range block.InlineChildren() {
		formatInline(w, source, indent, child)
	}
	w.WriteString("\n")
}

func formatInline(w *errWriter, source []byte, indent int, child *streammd.Inline) {
	switch child.Kind() {
	case streammd.LinkKind, streammd.ImageKind:
		if child.Kind() == streammd.ImageKind {
			w.WriteString("!")
		}
		w.WriteString("[")
		for _, linkChild := range child.Children() {
			formatInline(w, source, indent, linkChild)
		}
		w.WriteString("](")
		w.WriteString(streammd.NormalizeURI(child.LinkDestination()))
		if title, ok := child.LinkTitle(); ok {
			w.WriteString(` "`)
			w.WriteString(title)
			w.WriteString(`"`)
		}
		w.WriteString(")")
	case streammd.EmphasisKind, streammd.StrongKind:
		delim := string(child.DelimiterChar())
		if delim == "\x00" {
			delim = "*"
		}
		run := delim
		if child.Kind() == streammd.StrongKind {
			run += delim
		}
		w.WriteString(run)
		for _, c := range child.Children() {
			formatInline(w, source, indent, c)
		}
		w.WriteString(run)
	case streammd.CodeSpanKind:
		w.WriteString("`")
		if lit, ok := child.Literal(); ok {
			w.WriteString(lit)
		}
		w.WriteString("`")
	case streammd.AutolinkKind:
		w.WriteString("<")
		w.WriteString(child.LinkDestination())
		w.WriteString(">")
	case streammd.CharacterReferenceKind, streammd.TextKind, streammd.UnparsedKind, streammd.RawHTMLKind, streammd.HTMLTagKind:
		if child.Span().IsValid() {
			indentedWrite(w, indent, child.Text(source))
		}
	case streammd.HardLineBreakKind:
		w.WriteString("\\\n")
	case streammd.SoftLineBreakKind:
		w.WriteString("\n")
	}
}

func formatTable(w *errWriter, source []byte, table *streammd.Block) {
	align := table.TableAlignment()
	rows := table.BlockChildren()
	for i, row := range rows {
		w.WriteString("|")
		for _, cell := range row.BlockChildren() {
			w.WriteString(" ")
			for _, in := range cell.InlineChildren() {
				formatInline(w, source, 0, in)
			}
			w.WriteString(" |")
		}
		w.WriteString("\n")
		if i == 0 {
			w.WriteString("|")
			for _, a := range align {
				switch a {
				case streammd.AlignLeft:
					w.WriteString(" :--- |")
				case streammd.AlignCenter:
					w.WriteString(" :---: |")
				case streammd.AlignRight:
					w.WriteString(" ---: |")
				default:
					w.WriteString(" --- |")
				}
			}
			w.WriteString("\n")
		}
	}
}

func indentedWrite(w *errWriter, indent int, p []byte) {
	for {
		i := bytes.IndexByte(p, '\n')
		if i == -1 {
			break
		}
		w.Write(p[:i+1])
		for j := 0; j < indent; j++ {
			w.WriteString(" ")
		}
		p = p[i+1:]
	}
	w.Write(p)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = w.w.Write(p)
	return n, w.err
}

func (w *errWriter) WriteString(s string) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}
	n, w.err = io.WriteString(w.w, s)
	return n, w.err
}
