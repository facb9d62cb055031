package email

// Kind names a document component.
type Kind string

const (
	KindHTML      Kind = "html"
	KindHead      Kind = "head"
	KindPreview   Kind = "preview"
	KindBody      Kind = "body"
	KindContainer Kind = "container"
	KindHeading   Kind = "heading"
	KindText      Kind = "text"
	KindSection   Kind = "section"
	KindDiv       Kind = "div"
)

// Node is one component of a rendered email. Leaf components (preview,
// heading, text) carry Text; the others carry Children.
type Node struct {
	Kind     Kind
	Style    Style
	Text     string
	Children []Node
}

// Document is the output of Render.
type Document struct {
	Root Node
}

// Subject returns the preview line, or the first heading when the document
// has no preview.
func (d Document) Subject() string {
	if n, ok := d.Find(KindPreview); ok {
		return n.Text
	}
	if n, ok := d.Find(KindHeading); ok {
		return n.Text
	}
	return ""
}

// Find returns the first node of kind k in document order.
func (d Document) Find(k Kind) (Node, bool) {
	var found Node
	ok := false
	d.Walk(func(n Node) bool {
		if n.Kind == k {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// Walk visits nodes depth-first until fn returns false.
func (d Document) Walk(fn func(Node) bool) {
	walk(d.Root, fn)
}

func walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func el(kind Kind, style Style, children ...Node) Node {
	return Node{Kind: kind, Style: style, Children: children}
}

func leaf(kind Kind, style Style, text string) Node {
	return Node{Kind: kind, Style: style, Text: text}
}

func text(style Style, s string) Node {
	return leaf(KindText, style, s)
}

func heading(style Style, s string) Node {
	return leaf(KindHeading, style, s)
}

// page wraps the container contents in the html/head/body scaffold shared by
// every layout. An empty preview omits the preview node.
func page(preview string, content ...Node) Document {
	root := el(KindHTML, nil, el(KindHead, nil))
	if preview != "" {
		root.Children = append(root.Children, leaf(KindPreview, nil, preview))
	}
	root.Children = append(root.Children,
		el(KindBody, styleBody, el(KindContainer, styleContainer, content...)),
	)
	return Document{Root: root}
}
