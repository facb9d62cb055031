package email

// Message is a rendered email ready for the outbox.
type Message struct {
	Type     EmailType `json:"type"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	Text     string    `json:"text"`
	Fallback bool      `json:"fallback"`
}

// Compose renders req and serializes the result. Fallback reports whether
// the preview data replaced req.
func Compose(req *Request) Message {
	resolved := Resolve(req)
	doc := Render(&resolved)
	return Message{
		Type:     resolved.Type,
		Subject:  doc.Subject(),
		HTML:     doc.HTML(),
		Text:     doc.Text(),
		Fallback: !req.complete(),
	}
}

// ComposePreview renders the preview data for t. The message always reports
// Fallback, since preview data stands in for a caller's request.
func ComposePreview(t EmailType) Message {
	req := Fallback(t)
	msg := Compose(&req)
	msg.Fallback = true
	return msg
}
