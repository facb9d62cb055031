// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing responses.
// It provides a fluent API for status, headers and body so every handler
// formats success and error responses the same way.

package http

import (
	"encoding/json"
	"net/http"

	"finalyze/internal/email"
)

// Response content types.
const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// ResponseBuilder provides a fluent API for building responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// HTML sets the response body as HTML content.
func (b *ResponseBuilder) HTML(html string) *ResponseBuilder {
	b.headers["Content-Type"] = contentTypeHTML
	b.body = []byte(html)
	return b
}

// Text sets the response body as plain text.
func (b *ResponseBuilder) Text(text string) *ResponseBuilder {
	b.headers["Content-Type"] = contentTypeText
	b.body = []byte(text)
	return b
}

// JSON sets the response body to the JSON encoding of v.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	body, err := json.Marshal(v)
	if err != nil {
		return InternalServerError("failed to encode response")
	}
	b.headers["Content-Type"] = contentTypeJSON
	b.body = append(body, '\n')
	return b
}

// Email sets the body to msg in the requested format and exposes the
// subject and fallback flag as headers.
func (b *ResponseBuilder) Email(msg email.Message, format Format) *ResponseBuilder {
	b.headers["X-Email-Subject"] = msg.Subject
	if msg.Fallback {
		b.headers["X-Email-Fallback"] = "true"
	}
	switch format {
	case FormatText:
		return b.Text(msg.Text)
	case FormatJSON:
		return b.JSON(msg)
	default:
		return b.HTML(msg.HTML)
	}
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// PayloadTooLargeError creates a 413 Request Entity Too Large response.
func PayloadTooLargeError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusRequestEntityTooLarge, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// BadGatewayError creates a 502 Bad Gateway error response.
func BadGatewayError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadGateway, message)
}

// ServiceUnavailableError creates a 503 Service Unavailable error response.
func ServiceUnavailableError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message)
}
