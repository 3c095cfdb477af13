package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// headingPrefixes decorate headings by level, which Telegram can only
// render as bold lines.
var headingPrefixes = map[int]string{
	1: "🔹 ",
	2: "▶️ ",
	3: "📌 ",
}

// RenderHTML converts the model's markdown reply into the HTML subset
// Telegram accepts (b, i, u, code, pre, a). Unsupported constructs
// degrade to plain text; raw HTML in the input is dropped.
func RenderHTML(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading:
			if entering {
				sb.WriteString("<b>")
				if prefix, ok := headingPrefixes[node.Level]; ok {
					sb.WriteString(prefix)
				}
			} else {
				sb.WriteString("</b>\n\n")
			}

		case *ast.Paragraph:
			if !entering {
				sb.WriteString("\n\n")
			}

		case *ast.TextBlock:
			if !entering {
				sb.WriteString("\n")
			}

		case *ast.Text:
			if entering {
				sb.WriteString(html.EscapeString(string(node.Segment.Value(source))))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteString("\n")
				}
			}

		case *ast.String:
			if entering {
				sb.WriteString(html.EscapeString(string(node.Value)))
			}

		case *ast.Emphasis:
			tag := "i"
			if node.Level >= 2 {
				tag = "b"
			}
			if entering {
				fmt.Fprintf(&sb, "<%s>", tag)
			} else {
				fmt.Fprintf(&sb, "</%s>", tag)
			}

		case *ast.CodeSpan:
			if entering {
				sb.WriteString("<code>")
			} else {
				sb.WriteString("</code>")
			}

		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				sb.WriteString("<pre>")
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					sb.WriteString(html.EscapeString(string(seg.Value(source))))
				}
				sb.WriteString("</pre>\n\n")
			}
			return ast.WalkSkipChildren, nil

		case *ast.Link:
			if entering {
				fmt.Fprintf(&sb, `<a href="%s">`, html.EscapeString(string(node.Destination)))
			} else {
				sb.WriteString("</a>")
			}

		case *ast.AutoLink:
			if entering {
				url := string(node.URL(source))
				fmt.Fprintf(&sb, `<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(url))
			}
			return ast.WalkSkipChildren, nil

		case *ast.ListItem:
			if entering {
				sb.WriteString("✓ ")
			}

		case *ast.List:
			if !entering {
				sb.WriteString("\n")
			}

		case *ast.HTMLBlock, *ast.RawHTML:
			// Telegram rejects arbitrary HTML; drop it.
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}
