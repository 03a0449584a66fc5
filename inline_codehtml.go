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
)

// scanCodeSpan attempts to parse a code span starting at the backtick
// run under r's cursor (r.current() == '`'). On failure, it leaves r
// advanced past exactly one backtick, so the caller can treat that
// single backtick as literal text.
func scanCodeSpan(r *inlineByteReader) (*Inline, bool) {
	save := *r
	start := r.pos
	openLen := 0
	for !r.atEnd() && r.current() == '`' {
		r.next()
		openLen++
	}
	contentStart := r.pos
	for !r.atEnd() {
		if r.current() != '`' {
			r.next()
			continue
		}
		runStart := r.pos
		runLen := 0
		for !r.atEnd() && r.current() == '`' {
			r.next()
			runLen++
		}
		if runLen == openLen {
			content := normalizeCodeSpanContent(r.source[r.local(contentStart):r.local(runStart)])
			node := &Inline{kind: CodeSpanKind, span: Span{Start: start, End: r.pos}, literal: content, literalSet: true}
			return node, true
		}
	}
	*r = save
	r.next()
	return nil, false
}

func normalizeCodeSpanContent(b []byte) string {
	s := string(b)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	if len(s) >= 2 && strings.HasPrefix(s, " ") && strings.HasSuffix(s, " ") && strings.TrimSpace(s) != "" {
		s = s[1 : len(s)-1]
	}
	return s
}

// scanAutolinkOrRawHTML attempts to parse an autolink or a raw inline
// HTML construct starting at r's cursor (r.current() == '<'). It leaves
// r unmoved on failure.
func scanAutolinkOrRawHTML(r *inlineByteReader) (*Inline, bool) {
	if node, ok := scanAutolink(r); ok {
		return node, true
	}
	return scanRawInlineHTML(r)
}

func scanAutolink(r *inlineByteReader) (*Inline, bool) {
	save := *r
	start := r.pos
	r.next() // '<'
	contentStart := r.pos
	for !r.atEnd() {
		c := r.current()
		if c == '>' {
			text := string(r.source[r.local(contentStart):r.local(r.pos)])
			if isAbsoluteURI(text) || isEmailAddress(text) {
				r.next()
				return &Inline{kind: AutolinkKind, span: Span{Start: start, End: r.pos}, destination: text}, true
			}
			*r = save
			return nil, false
		}
		if c == '<' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			*r = save
			return nil, false
		}
		r.next()
	}
	*r = save
	return nil, false
}

func isAbsoluteURI(s string) bool {
	i := strings.IndexByte(s, ':')
	if i < 2 || i > 33 {
		return false
	}
	scheme := s[:i]
	if !isASCIILetter(scheme[0]) {
		return false
	}
	for j := 1; j < len(scheme); j++ {
		c := scheme[j]
		if !isASCIILetter(c) && !isASCIIDigit(c) && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	rest := s[i+1:]
	for j := 0; j < len(rest); j++ {
		if rest[j] <= ' ' || rest[j] == '<' || rest[j] == '>' {
			return false
		}
	}
	return true
}

// IsEmailAddress reports whether s matches the autolink email address
// grammar, without the enclosing angle brackets.
func IsEmailAddress(s string) bool {
	return isEmailAddress(s)
}

func isEmailAddress(s string) bool {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	for i := 0; i < len(local); i++ {
		c := local[i]
		if !isASCIILetter(c) && !isASCIIDigit(c) && !strings.ContainsRune(".!#$%&'*+/=?^_`{|}~-", rune(c)) {
			return false
		}
	}
	labels := strings.Split(domain, ".")
	if len(labels) < 1 {
		return false
	}
	for _, l := range labels {
		if l == "" || len(l) > 63 {
			return false
		}
		for i := 0; i < len(l); i++ {
			c := l[i]
			if !isASCIILetter(c) && !isASCIIDigit(c) && c != '-' {
				return false
			}
		}
		if l[0] == '-' || l[len(l)-1] == '-' {
			return false
		}
	}
	return true
}

func scanRawInlineHTML(r *inlineByteReader) (*Inline, bool) {
	start := r.pos
	rest := r.remainingNodeBytes()
	if len(rest) < 2 {
		return nil, false
	}

	var endMarker string
	body := rest[1:]
	switch {
	case bytes.HasPrefix(body, []byte("!--")):
		endMarker = "-->"
		body = body[3:]
	case bytes.HasPrefix(body, []byte("?")):
		endMarker = "?>"
	case bytes.HasPrefix(body, []byte("![CDATA[")):
		endMarker = "]]>"
	case len(body) > 0 && body[0] == '!' && len(body) > 1 && isASCIILetter(body[1]):
		endMarker = ">"
	default:
		return scanHTMLTag(r)
	}

	idx := bytes.Index(body, []byte(endMarker))
	if idx < 0 {
		return nil, false
	}
	total := 1 + (len(rest[1:]) - len(body)) + idx + len(endMarker)
	for i := 0; i < total; i++ {
		r.next()
	}
	return &Inline{kind: RawHTMLKind, span: Span{Start: start, End: r.pos}}, true
}

func scanHTMLTag(r *inlineByteReader) (*Inline, bool) {
	save := *r
	start := r.pos
	r.next() // '<'
	closing := false
	if !r.atEnd() && r.current() == '/' {
		closing = true
		r.next()
	}
	nameStart := r.pos
	for !r.atEnd() && (isASCIILetter(r.current()) || (r.pos > nameStart && (isASCIIDigit(r.current()) || r.current() == '-'))) {
		r.next()
	}
	if r.pos == nameStart {
		*r = save
		return nil, false
	}

	if !closing {
		for {
			skipHTMLWhitespace(r)
			if r.atEnd() {
				*r = save
				return nil, false
			}
			if r.current() == '/' || r.current() == '>' {
				break
			}
			if !scanHTMLAttribute(r) {
				*r = save
				return nil, false
			}
		}
	}
	skipHTMLWhitespace(r)
	if !r.atEnd() && r.current() == '/' {
		r.next()
	}
	if r.atEnd() || r.current() != '>' {
		*r = save
		return nil, false
	}
	r.next()
	return &Inline{kind: HTMLTagKind, span: Span{Start: start, End: r.pos}}, true
}

func skipHTMLWhitespace(r *inlineByteReader) {
	for !r.atEnd() {
		switch r.current() {
		case ' ', '\t', '\n', '\r':
			r.next()
		default:
			return
		}
	}
}

func scanHTMLAttribute(r *inlineByteReader) bool {
	if r.atEnd() || !(isASCIILetter(r.current()) || r.current() == '_' || r.current() == ':') {
		return false
	}
	for !r.atEnd() {
		c := r.current()
		if isASCIILetter(c) || isASCIIDigit(c) || c == '_' || c == ':' || c == '.' || c == '-' {
			r.next()
			continue
		}
		break
	}
	save := *r
	skipHTMLWhitespace(r)
	if r.atEnd() || r.current() != '=' {
		*r = save
		return true
	}
	r.next()
	skipHTMLWhitespace(r)
	if r.atEnd() {
		return false
	}
	switch r.current() {
	case '"':
		r.next()
		for !r.atEnd() && r.current() != '"' {
			r.next()
		}
		if r.atEnd() {
			return false
		}
		r.next()
	case '\'':
		r.next()
		for !r.atEnd() && r.current() != '\'' {
			r.next()
		}
		if r.atEnd() {
			return false
		}
		r.next()
	default:
		n := 0
		for !r.atEnd() {
			c := r.current()
			if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '"' || c == '\'' || c == '=' || c == '<' || c == '>' || c == '`' {
				break
			}
			r.next()
			n++
		}
		if n == 0 {
			return false
		}
	}
	return true
}
