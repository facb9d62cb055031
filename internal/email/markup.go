package email

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	doctype      = `<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">`
	previewStyle = "display:none;overflow:hidden;line-height:1px;opacity:0;max-height:0;max-width:0;"
	tableAttrs   = ` role="presentation" cellspacing="0" cellpadding="0" border="0" width="100%"`
)

// stripTags removes any markup smuggled into user-supplied text before it
// goes into the plain-text body.
var stripTags = bluemonday.StrictPolicy()

// HTML serializes the document into email-safe markup with inline styles.
// All text is escaped.
func (d Document) HTML() string {
	var b strings.Builder
	b.WriteString(doctype)
	writeNode(&b, d.Root, "")
	return b.String()
}

// writeNode emits n. preview is hoisted into the top of the body, where
// mail clients pick it up as the inbox preheader.
func writeNode(b *strings.Builder, n Node, preview string) {
	switch n.Kind {
	case KindHTML:
		for _, c := range n.Children {
			if c.Kind == KindPreview {
				preview = c.Text
			}
		}
		b.WriteString(`<html lang="en" dir="ltr">`)
		for _, c := range n.Children {
			if c.Kind != KindPreview {
				writeNode(b, c, preview)
			}
		}
		b.WriteString(`</html>`)
	case KindHead:
		b.WriteString(`<head><meta content="text/html; charset=UTF-8" http-equiv="Content-Type"/><meta name="x-apple-disable-message-reformatting"/></head>`)
	case KindPreview:
		openTag(b, "div", Style{{"display", "none"}})
		b.WriteString(template.HTMLEscapeString(n.Text))
		b.WriteString(`</div>`)
	case KindBody:
		openTag(b, "body", n.Style)
		if preview != "" {
			b.WriteString(`<div style="` + previewStyle + `" data-skip-in-text="true">`)
			b.WriteString(template.HTMLEscapeString(preview))
			b.WriteString(`</div>`)
		}
		writeChildren(b, n)
		b.WriteString(`</body>`)
	case KindContainer:
		b.WriteString(`<table align="center"` + tableAttrs + ` style="max-width:37.5em;` + template.HTMLEscapeString(n.Style.CSS()) + `"><tbody><tr style="width:100%"><td>`)
		writeChildren(b, n)
		b.WriteString(`</td></tr></tbody></table>`)
	case KindSection:
		b.WriteString(`<table align="center"` + tableAttrs + ` style="` + template.HTMLEscapeString(n.Style.CSS()) + `"><tbody><tr><td>`)
		writeChildren(b, n)
		b.WriteString(`</td></tr></tbody></table>`)
	case KindHeading:
		openTag(b, "h1", n.Style)
		b.WriteString(template.HTMLEscapeString(n.Text))
		b.WriteString(`</h1>`)
	case KindText:
		openTag(b, "p", n.Style)
		b.WriteString(template.HTMLEscapeString(n.Text))
		b.WriteString(`</p>`)
	default:
		openTag(b, "div", n.Style)
		writeChildren(b, n)
		b.WriteString(`</div>`)
	}
}

func writeChildren(b *strings.Builder, n Node) {
	for _, c := range n.Children {
		writeNode(b, c, "")
	}
}

func openTag(b *strings.Builder, tag string, style Style) {
	b.WriteString("<" + tag)
	if len(style) > 0 {
		b.WriteString(` style="` + template.HTMLEscapeString(style.CSS()) + `"`)
	}
	b.WriteString(">")
}

// Text serializes the document into the plain-text alternative body.
// Headings and paragraphs take one line each, a div joins its children with
// ": " and sections are separated by a blank line.
func (d Document) Text() string {
	var lines []string
	collectText(d.Root, &lines)
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

func collectText(n Node, lines *[]string) {
	switch n.Kind {
	case KindPreview, KindHead:
		return
	case KindHeading, KindText:
		*lines = append(*lines, plain(n.Text))
	case KindDiv:
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			if c.Text != "" {
				parts = append(parts, plain(c.Text))
			}
		}
		*lines = append(*lines, strings.Join(parts, ": "))
	case KindSection:
		blank(lines)
		for _, c := range n.Children {
			collectText(c, lines)
		}
		blank(lines)
	default:
		for _, c := range n.Children {
			collectText(c, lines)
		}
	}
}

func blank(lines *[]string) {
	if len(*lines) > 0 && (*lines)[len(*lines)-1] != "" {
		*lines = append(*lines, "")
	}
}

func plain(s string) string {
	return html.UnescapeString(stripTags.Sanitize(s))
}
