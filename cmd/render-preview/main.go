// Command render-preview prints a rendered email to stdout. Without -in it
// renders the preview data for -type; with -in it renders the request JSON
// read from that file ("-" for stdin).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"finalyze/internal/email"
	apphttp "finalyze/internal/http"
	"finalyze/internal/log"
)

func main() {
	var (
		emailType = flag.String("type", string(email.MonthlyReport), "preview type when -in is not set")
		in        = flag.String("in", "", "request JSON file, or - for stdin")
		format    = flag.String("format", "html", "output format: html, text or json")
	)
	flag.Parse()

	logger := log.New(log.Config{Output: os.Stderr, Component: "render-preview"})

	msg, err := render(*emailType, *in)
	if err != nil {
		logger.Error("Failed to render email", log.FieldError, err)
		os.Exit(1)
	}
	if err := write(os.Stdout, msg, apphttp.Format(*format)); err != nil {
		logger.Error("Failed to write email", log.FieldError, err)
		os.Exit(1)
	}
	logger.Debug("Rendered email", log.FieldEmailType, msg.Type, log.FieldFallback, msg.Fallback)
}

func render(emailType, in string) (email.Message, error) {
	if in == "" {
		return email.ComposePreview(email.EmailType(emailType)), nil
	}

	var (
		body []byte
		err  error
	)
	if in == "-" {
		body, err = io.ReadAll(io.LimitReader(os.Stdin, apphttp.MaxBodyBytes))
	} else {
		body, err = os.ReadFile(in)
	}
	if err != nil {
		return email.Message{}, fmt.Errorf("read request: %w", err)
	}
	req, err := apphttp.DecodeRenderRequest(body)
	if err != nil {
		return email.Message{}, err
	}
	return email.Compose(req), nil
}

func write(w io.Writer, msg email.Message, format apphttp.Format) error {
	switch format {
	case apphttp.FormatHTML:
		_, err := io.WriteString(w, msg.HTML+"\n")
		return err
	case apphttp.FormatText:
		_, err := io.WriteString(w, msg.Text)
		return err
	case apphttp.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(msg)
	default:
		return fmt.Errorf("unsupported format %q: must be html, text or json", format)
	}
}
