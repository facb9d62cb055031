// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// month parameters, amounts, output formats and size-limited bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finalyze/internal/core"
	"finalyze/internal/email"
)

// MaxBodyBytes caps request bodies on POST endpoints.
const MaxBodyBytes = 1 << 20

var (
	ErrBodyTooLarge = errors.New("request body too large")
	ErrInvalidJSON  = errors.New("invalid JSON body")
)

// Format selects the serialization of a rendered email.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat reads ?format=, defaulting to HTML.
func ParseFormat(query url.Values) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(query.Get("format")))); f {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be html, text or json", f)
	}
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using
// the current date for missing values. Present but invalid values fail.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			return params, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || core.ValidateMonth(m) != nil {
			return params, fmt.Errorf("invalid month %q: must be 1-12", v)
		}
		params.Month = m
	}

	return params, nil
}

// ParseAmountParam reads a rupee amount such as "20000" or "1500,50".
// A missing parameter yields a zero Money and no error.
func ParseAmountParam(query url.Values, key string) (core.Money, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.Money{}, nil
	}
	paise, err := core.ParseDecimalToPaise(v)
	if err != nil {
		return core.Money{}, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return core.Money{Paise: paise}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// ReadBody reads at most MaxBodyBytes from r.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrBodyTooLarge
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// DecodeRenderRequest decodes a render request body. An empty body or JSON
// null yields a nil request, which renders the preview fallback.
func DecodeRenderRequest(body []byte) (*email.Request, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	var req *email.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return req, nil
}

// OutboxRequest is the body of POST /outbox.
type OutboxRequest struct {
	Recipient string        `json:"recipient"`
	Request   email.Request `json:"request"`
}

// DecodeOutboxRequest decodes and checks a POST /outbox body.
func DecodeOutboxRequest(body []byte) (OutboxRequest, error) {
	var req OutboxRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	req.Recipient = sanitizeInput(req.Recipient)
	if req.Recipient == "" {
		return req, errors.New("recipient is required")
	}
	return req, nil
}
