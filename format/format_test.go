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

package format

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/streammd/streammd"
	"github.com/streammd/streammd/internal/normhtml"
	"github.com/streammd/streammd/render"
)

func parseDocument(markdown string) []*streammd.RootBlock {
	p := streammd.NewParser()
	return p.Parse([]byte(markdown), false)
}

var formatExamples = []string{
	"Hello, World!\n",
	"# Heading\n\nSome *emphasis* and **strong** text.\n",
	"- one\n- two\n- three\n",
	"1. first\n2. second\n",
	"> a quote\n> spanning lines\n",
	"```go\nfmt.Println(\"hi\")\n```\n",
	"Some `code span` inline.\n",
	"[a link](https://example.com \"title\")\n",
	"| a | b |\n| --- | :---: |\n| 1 | 2 |\n",
}

func TestFormatRoundTripsHTML(t *testing.T) {
	for _, markdown := range formatExamples {
		blocks := parseDocument(markdown)

		originalHTML := new(bytes.Buffer)
		if err := render.RenderHTML(originalHTML, blocks); err != nil {
			t.Errorf("%q: render original HTML: %v", markdown, err)
			continue
		}

		formatted := new(bytes.Buffer)
		if err := Format(formatted, blocks); err != nil {
			t.Errorf("%q: Format: %v", markdown, err)
			continue
		}

		reparsed := parseDocument(formatted.String())
		formattedHTML := new(bytes.Buffer)
		if err := render.RenderHTML(formattedHTML, reparsed); err != nil {
			t.Errorf("%q: render formatted HTML: %v", markdown, err)
			continue
		}

		want := string(normhtml.NormalizeHTML(originalHTML.Bytes()))
		got := string(normhtml.NormalizeHTML(formattedHTML.Bytes()))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%q: reformatting changed HTML (-want +got):\n%s\nformatted markdown:\n%s", markdown, diff, formatted)
		}
	}
}

func TestFormatIdempotent(t *testing.T) {
	for _, markdown := range formatExamples {
		blocks := parseDocument(markdown)
		first := new(bytes.Buffer)
		if err := Format(first, blocks); err != nil {
			t.Errorf("%q: Format #1: %v", markdown, err)
			continue
		}

		reparsed := parseDocument(first.String())
		second := new(bytes.Buffer)
		if err := Format(second, reparsed); err != nil {
			t.Errorf("%q: Format #2: %v", markdown, err)
			continue
		}

		if diff := cmp.Diff(first.String(), second.String()); diff != "" {
			t.Errorf("%q: Format not idempotent (-first +second):\n%s", markdown, diff)
		}
	}
}

func TestIndentedWrite(t *testing.T) {
	tests := []struct {
		indent int
		in     string
		want   string
	}{
		{0, "", ""},
		{0, "abc", "abc"},
		{2, "a\nb\n", "a\n  b\n  "},
		{4, "a\nb\nc", "a\n    b\n    c"},
	}
	for _, test := range tests {
		buf := new(bytes.Buffer)
		w := &errWriter{w: buf}
		indentedWrite(w, test.indent, []byte(test.in))
		if w.err != nil {
			t.Errorf("indentedWrite(%d, %q) error: %v", test.indent, test.in, w.err)
			continue
		}
		if got := buf.String(); got != test.want {
			t.Errorf("indentedWrite(%d, %q) = %q; want %q", test.indent, test.in, got, test.want)
		}
	}
}
