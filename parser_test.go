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

package streammd_test

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/streammd/streammd"
	"github.com/streammd/streammd/internal/normhtml"
	"github.com/streammd/streammd/render"
)

func renderToHTML(t *testing.T, blocks []*streammd.RootBlock) string {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := render.RenderHTML(buf, blocks); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	return buf.String()
}

// wantHTML compares rendered HTML the same way the CommonMark spec test
// suite does: normalized to ignore insignificant whitespace differences.
func wantHTML(t *testing.T, markdown, got, want string) {
	t.Helper()
	gotNorm := string(normhtml.NormalizeHTML([]byte(got)))
	wantNorm := string(normhtml.NormalizeHTML([]byte(want)))
	if diff := cmp.Diff(wantNorm, gotNorm); diff != "" {
		t.Errorf("RenderHTML(%q) mismatch (-want +got):\n%s\nfull got: %q", markdown, diff, got)
	}
}

func TestParseBasicBlocks(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{"paragraph", "hello world\n", "<p>hello world</p>"},
		{"atxHeading", "## heading\n", "<h2>heading</h2>"},
		{"setextHeading", "heading\n=======\n", "<h1>heading</h1>"},
		{"thematicBreak", "---\n", "<hr />"},
		{"blockQuote", "> quoted\n", "<blockquote><p>quoted</p></blockquote>"},
		{"indentedCode", "    code here\n", "<pre><code>code here\n</code></pre>"},
		{
			"fencedCode",
			"```go\nfmt.Println(1)\n```\n",
			`<pre><code class="language-go">fmt.Println(1)` + "\n</code></pre>",
		},
		{"tightList", "- a\n- b\n", "<ul><li>a</li><li>b</li></ul>"},
		{
			"looseList",
			"- a\n\n- b\n",
			"<ul><li><p>a</p></li><li><p>b</p></li></ul>",
		},
		{"orderedList", "1. a\n2. b\n", "<ol><li>a</li><li>b</li></ol>"},
		{"orderedListStart", "5. a\n6. b\n", `<ol start="5"><li>a</li><li>b</li></ol>`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := streammd.NewParser()
			blocks := p.Parse([]byte(test.markdown), false)
			wantHTML(t, test.markdown, renderToHTML(t, blocks), test.want)
		})
	}
}

func TestParseInlines(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{"emphasis", "*foo*\n", "<p><em>foo</em></p>"},
		{"strong", "**foo**\n", "<p><strong>foo</strong></p>"},
		{"codeSpan", "`foo`\n", "<p><code>foo</code></p>"},
		{"inlineLink", "[foo](/url \"title\")\n", `<p><a href="/url" title="title">foo</a></p>`},
		{
			"autolink",
			"<https://example.com/>\n",
			`<p><a href="https://example.com/">https://example.com/</a></p>`,
		},
		{"hardBreak", "foo  \nbar\n", "<p>foo<br />\nbar</p>"},
		{"softBreak", "foo\nbar\n", "<p>foo\nbar</p>"},
		{"entity", "&amp;\n", "<p>&amp;</p>"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := streammd.NewParser()
			blocks := p.Parse([]byte(test.markdown), false)
			wantHTML(t, test.markdown, renderToHTML(t, blocks), test.want)
		})
	}
}

func TestReferenceLinks(t *testing.T) {
	markdown := "[foo][bar]\n\n[bar]: /url \"a title\"\n"
	want := `<p><a href="/url" title="a title">foo</a></p>`
	p := streammd.NewParser()
	blocks := p.Parse([]byte(markdown), false)
	wantHTML(t, markdown, renderToHTML(t, blocks), want)
}

func TestGFMTable(t *testing.T) {
	markdown := "| a | b |\n| --- | :---: |\n| 1 | 2 |\n"
	want := `<table>
<thead><tr><th>a</th><th align="center">b</th></tr></thead>
<tbody><tr><td>1</td><td align="center">2</td></tr></tbody>
</table>`
	p := streammd.NewParser()
	blocks := p.Parse([]byte(markdown), false)
	wantHTML(t, markdown, renderToHTML(t, blocks), want)
}

// TestStreamingMatchesWholeParse verifies that splitting a document across
// many Parse calls produces the same rendered output as parsing it all at
// once, including when a chunk boundary falls in the middle of a CRLF pair.
func TestStreamingMatchesWholeParse(t *testing.T) {
	docs := []string{
		"# heading\n\nfirst *em* paragraph\n\n- item one\n- item two\n\n> quoted\n> text\n",
		"line one\r\nline two\r\n",
		"paragraph with a [link](/url) and `code`\n\nmore text\n",
	}
	for _, doc := range docs {
		whole := streammd.NewParser()
		wantBlocks := whole.Parse([]byte(doc), false)
		want := renderToHTML(t, wantBlocks)

		stream := streammd.NewParser()
		var got []*streammd.RootBlock
		for i := 0; i < len(doc); i++ {
			got = append(got, stream.Parse([]byte{doc[i]}, true)...)
		}
		got = append(got, stream.Parse(nil, false)...)

		gotHTML := renderToHTML(t, got)
		if gotHTML != want {
			t.Errorf("streaming byte-by-byte parse of %q = %q; want %q", doc, gotHTML, want)
		}
	}
}
