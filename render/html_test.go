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

package render

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/streammd/streammd"
	"github.com/streammd/streammd/internal/normhtml"
)

func parse(markdown string) []*streammd.RootBlock {
	p := streammd.NewParser()
	return p.Parse([]byte(markdown), false)
}

func wantNormalizedHTML(t *testing.T, markdown, got, want string) {
	t.Helper()
	gotNorm := string(normhtml.NormalizeHTML([]byte(got)))
	wantNorm := string(normhtml.NormalizeHTML([]byte(want)))
	if diff := cmp.Diff(wantNorm, gotNorm); diff != "" {
		t.Errorf("render(%q) mismatch (-want +got):\n%s\nfull got: %q", markdown, diff, got)
	}
}

func TestRenderHTMLEscaping(t *testing.T) {
	markdown := "Tom & Jerry's <tag> \"quote\"\n"
	want := "<p>Tom &amp; Jerry&#39;s <tag> &quot;quote&quot;</p>"
	buf := new(bytes.Buffer)
	if err := RenderHTML(buf, parse(markdown)); err != nil {
		t.Fatal(err)
	}
	wantNormalizedHTML(t, markdown, buf.String(), want)
}

func TestRenderHTMLBlockIsVerbatim(t *testing.T) {
	markdown := "<div>\n  <p>raw & unescaped</p>\n</div>\n"
	want := "<div>\n  <p>raw & unescaped</p>\n</div>\n"
	buf := new(bytes.Buffer)
	if err := RenderHTML(buf, parse(markdown)); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != want {
		t.Errorf("RenderHTML(%q) = %q; want %q (HTML blocks must not be escaped)", markdown, got, want)
	}
}

func TestRenderHTMLIgnoreRaw(t *testing.T) {
	markdown := "before <span>raw</span> after\n"
	r := &HTMLRenderer{IgnoreRaw: true}
	buf := new(bytes.Buffer)
	if err := r.Render(buf, parse(markdown)); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if bytes.Contains([]byte(got), []byte("<span>")) {
		t.Errorf("Render with IgnoreRaw(%q) = %q; want raw HTML dropped entirely", markdown, got)
	}
	wantNormalizedHTML(t, markdown, got, "<p>before raw after</p>")
}

func TestRenderHTMLFilterTagGFM(t *testing.T) {
	markdown := "<script>alert(1)</script>\n"
	r := &HTMLRenderer{FilterTag: FilterTagGFM}
	buf := new(bytes.Buffer)
	if err := r.Render(buf, parse(markdown)); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if bytes.Contains([]byte(got), []byte("<script>")) {
		t.Errorf("Render with FilterTagGFM(%q) = %q; want escaped <script> tag", markdown, got)
	}
	if !bytes.Contains([]byte(got), []byte("&lt;script>")) {
		t.Errorf("Render with FilterTagGFM(%q) = %q; want escaped opening angle bracket", markdown, got)
	}
}

func TestSoftBreakBehavior(t *testing.T) {
	markdown := "foo\nbar\n"
	tests := []struct {
		behavior SoftBreakBehavior
		want     string
	}{
		{SoftBreakPreserve, "<p>foo\nbar</p>"},
		{SoftBreakSpace, "<p>foo bar</p>"},
		{SoftBreakHarden, "<p>foo<br />bar</p>"},
	}
	for _, test := range tests {
		r := &HTMLRenderer{SoftBreakBehavior: test.behavior}
		buf := new(bytes.Buffer)
		if err := r.Render(buf, parse(markdown)); err != nil {
			t.Fatal(err)
		}
		wantNormalizedHTML(t, markdown, buf.String(), test.want)
	}
}

func TestRenderTableAlignment(t *testing.T) {
	markdown := "| a | b | c |\n| :-- | :-: | --: |\n| 1 | 2 | 3 |\n"
	want := `<table>
<thead><tr><th align="left">a</th><th align="center">b</th><th align="right">c</th></tr></thead>
<tbody><tr><td align="left">1</td><td align="center">2</td><td align="right">3</td></tr></tbody>
</table>`
	buf := new(bytes.Buffer)
	if err := RenderHTML(buf, parse(markdown)); err != nil {
		t.Fatal(err)
	}
	wantNormalizedHTML(t, markdown, buf.String(), want)
}

func TestRenderImageAltTextFlattensInlines(t *testing.T) {
	markdown := "![alt *text* here](/img.png \"title\")\n"
	want := `<p><img src="/img.png" title="title" alt="alt text here" /></p>`
	buf := new(bytes.Buffer)
	if err := RenderHTML(buf, parse(markdown)); err != nil {
		t.Fatal(err)
	}
	wantNormalizedHTML(t, markdown, buf.String(), want)
}
