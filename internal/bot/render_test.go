package bot

import (
	"strings"
	"testing"
)

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
		not  []string
	}{
		{
			name: "bold and italic",
			in:   "This is **important** and *subtle*.",
			want: []string{"<b>important</b>", "<i>subtle</i>"},
		},
		{
			name: "headings become bold lines",
			in:   "# Big\n\n## Medium\n\n### Small",
			want: []string{"<b>🔹 Big</b>", "<b>▶️ Medium</b>", "<b>📌 Small</b>"},
		},
		{
			name: "inline code",
			in:   "Meet at `18:00` sharp.",
			want: []string{"<code>18:00</code>"},
		},
		{
			name: "code block",
			in:   "```\nline one\nline two\n```",
			want: []string{"<pre>line one\nline two\n</pre>"},
		},
		{
			name: "bullet lists",
			in:   "- first item\n- second item",
			want: []string{"✓ first item", "✓ second item"},
			not:  []string{"- first"},
		},
		{
			name: "links",
			in:   "See [the site](https://example.org) for details.",
			want: []string{`<a href="https://example.org">the site</a>`},
		},
		{
			name: "angle brackets escaped",
			in:   "Use x < 10 && y > 2.",
			want: []string{"x &lt; 10", "y &gt; 2"},
			not:  []string{"x < 10"},
		},
		{
			name: "raw html dropped",
			in:   "before\n\n<div onclick=\"evil()\">hi</div>\n\nafter",
			want: []string{"before", "after"},
			not:  []string{"<div", "evil"},
		},
		{
			name: "plain text unchanged",
			in:   "Just a sentence.",
			want: []string{"Just a sentence."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderHTML(tt.in)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(got, n) {
					t.Errorf("output should not contain %q:\n%s", n, got)
				}
			}
		})
	}
}

func TestRenderHTMLEmpty(t *testing.T) {
	if got := RenderHTML(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
