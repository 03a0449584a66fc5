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

// tokenizeBlockTree walks a harvested block tree and replaces every leaf
// block's deferred [UnparsedKind] content with real inline nodes. It runs
// once per root block, after the link reference definition sweep has
// populated refs, so link text referring to a definition elsewhere in the
// same root resolves correctly.
func tokenizeBlockTree(source []byte, b *Block, refs ReferenceMap) {
	switch b.kind {
	case LinkReferenceDefinitionKind:
		// Already decoded into literal Inline fields by the reference
		// sweep; nothing to tokenize.
		return
	case ParagraphKind, SetextHeadingKind, ATXHeadingKind, TableCellKind:
		b.inlineChildren = tokenizeTextChildren(source, b.inlineChildren, refs)
		return
	case IndentedCodeBlockKind, FencedCodeBlockKind:
		b.inlineChildren = literalTextChildren(b.inlineChildren, TextKind)
		return
	case HTMLBlockKind:
		// HTML block content is emitted verbatim, never escaped, so it is
		// collapsed into a RawHTMLKind node rather than TextKind.
		b.inlineChildren = literalTextChildren(b.inlineChildren, RawHTMLKind)
		return
	}

	for _, child := range b.blockChildren {
		tokenizeBlockTree(source, child, refs)
	}
}

// tokenizeTextChildren re-lexes the deferred UnparsedKind spans of a block
// whose content is inline markup (a paragraph, heading, or table cell).
// Spans are contiguous in source, so the combined span from the first to
// the last UnparsedKind child reconstructs the block's full raw text,
// including the line endings between wrapped lines; tokenizeInline itself
// classifies each embedded line ending as a soft or hard break.
func tokenizeTextChildren(source []byte, children []*Inline, refs ReferenceMap) []*Inline {
	first, last := -1, -1
	for i, in := range children {
		if in.kind == UnparsedKind {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return nil
	}
	span := Span{Start: children[first].span.Start, End: children[last].span.End}
	if !span.IsValid() || span.Len() == 0 {
		return nil
	}
	return tokenizeInline(source, span, refs)
}

// literalTextChildren collapses a code or HTML block's per-line
// UnparsedKind spans into a single verbatim node of the given kind
// spanning the block's whole contiguous content.
func literalTextChildren(children []*Inline, kind InlineKind) []*Inline {
	first, last := -1, -1
	for i, in := range children {
		if in.kind == UnparsedKind {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return nil
	}
	span := Span{Start: children[first].span.Start, End: children[last].span.End}
	return []*Inline{{kind: kind, span: span}}
}
