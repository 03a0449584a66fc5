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

// InlineKind identifies the kind of an [Inline].
type InlineKind uint8

// Inline kinds.
const (
	TextKind InlineKind = 1 + iota
	SoftLineBreakKind
	HardLineBreakKind
	IndentKind
	CharacterReferenceKind
	InfoStringKind
	EmphasisKind
	StrongKind
	LinkKind
	ImageKind
	LinkDestinationKind
	LinkTitleKind
	LinkLabelKind
	CodeSpanKind
	AutolinkKind
	HTMLTagKind
	RawHTMLKind

	// UnparsedKind marks a span of source bytes that has not yet been
	// tokenized into inline children. The block parser attaches
	// UnparsedKind inlines to a block's content lines; the deferred
	// tokenizer replaces them with the kinds above when the block is
	// harvested.
	UnparsedKind
)

var inlineKindNames = [...]string{
	TextKind:                "TextKind",
	SoftLineBreakKind:       "SoftLineBreakKind",
	HardLineBreakKind:       "HardLineBreakKind",
	IndentKind:              "IndentKind",
	CharacterReferenceKind:  "CharacterReferenceKind",
	InfoStringKind:          "InfoStringKind",
	EmphasisKind:            "EmphasisKind",
	StrongKind:              "StrongKind",
	LinkKind:                "LinkKind",
	ImageKind:               "ImageKind",
	LinkDestinationKind:     "LinkDestinationKind",
	LinkTitleKind:           "LinkTitleKind",
	LinkLabelKind:           "LinkLabelKind",
	CodeSpanKind:            "CodeSpanKind",
	AutolinkKind:            "AutolinkKind",
	HTMLTagKind:             "HTMLTagKind",
	RawHTMLKind:             "RawHTMLKind",
	UnparsedKind:            "UnparsedKind",
}

func (k InlineKind) String() string {
	if int(k) < len(inlineKindNames) && inlineKindNames[k] != "" {
		return inlineKindNames[k]
	}
	return "InlineKind(" + strconv.Itoa(int(k)) + ")"
}

// Inline is a single node in an inline content tree.
type Inline struct {
	kind     InlineKind
	span     Span
	children []*Inline

	// destination and title hold the resolved, already-unescaped link or
	// image attributes for LinkKind and ImageKind nodes, set either from
	// an inline destination/title pair or from a resolved reference
	// definition.
	destination string
	title       string
	titleSet    bool

	// literal, when literalSet, overrides Span-based text lookup: it
	// holds a decoded string for nodes (entity references, and the
	// label/destination/title of a link reference definition) whose
	// value was unescaped or normalized away from the source bytes.
	literal    string
	literalSet bool

	// delimChar records which of '*' or '_' formed an EmphasisKind or
	// StrongKind node's delimiter run.
	delimChar byte
}

// Kind returns the inline's kind.
func (in *Inline) Kind() InlineKind {
	return in.kind
}

// Span returns the inline's byte span within its root block's Source.
func (in *Inline) Span() Span {
	return in.span
}

// ChildCount returns the number of children the inline has.
func (in *Inline) ChildCount() int {
	return len(in.children)
}

// Child returns the i'th child of the inline as a [Node].
func (in *Inline) Child(i int) Node {
	return in.children[i].AsNode()
}

// Children returns the inline's direct children.
func (in *Inline) Children() []*Inline {
	return in.children
}

// Text returns the raw source bytes of the inline's span.
func (in *Inline) Text(source []byte) []byte {
	return spanSlice(source, in.span)
}

// LinkDestination returns a link or image's destination, already
// unescaped and percent-normalized.
func (in *Inline) LinkDestination() string {
	return in.destination
}

// LinkTitle returns a link or image's title, and whether a title was
// present at all.
func (in *Inline) LinkTitle() (title string, ok bool) {
	return in.title, in.titleSet
}

// Literal returns a decoded string overriding the inline's Span, when
// one is set.
func (in *Inline) Literal() (string, bool) {
	return in.literal, in.literalSet
}

// DelimiterChar returns the '*' or '_' character that formed an
// EmphasisKind or StrongKind node's delimiter run.
func (in *Inline) DelimiterChar() byte {
	return in.delimChar
}
