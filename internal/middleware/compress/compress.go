// Package compress encodes responses with brotli or gzip when the client
// advertises support for it.
package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
)

// Encodings in order of preference.
const (
	EncodingBrotli = "br"
	EncodingGzip   = "gzip"
)

// Config holds compression settings.
type Config struct {
	BrotliLevel int
	GzipLevel   int
}

// DefaultConfig favours latency over ratio; rendered emails are small.
func DefaultConfig() Config {
	return Config{
		BrotliLevel: brotli.DefaultCompression,
		GzipLevel:   gzip.DefaultCompression,
	}
}

// Negotiate picks the encoding for an Accept-Encoding header, or "" when
// the client accepts neither.
func Negotiate(acceptEncoding string) string {
	var br, gz bool
	for _, part := range strings.Split(acceptEncoding, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if rejected(params) {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case EncodingBrotli:
			br = true
		case EncodingGzip:
			gz = true
		}
	}
	switch {
	case br:
		return EncodingBrotli
	case gz:
		return EncodingGzip
	default:
		return ""
	}
}

// rejected reports whether params carry q=0.
func rejected(params string) bool {
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(k, "q") {
			q, err := strconv.ParseFloat(v, 64)
			return err == nil && q == 0
		}
	}
	return false
}

// Middleware compresses response bodies.
func Middleware(config Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")
			encoding := Negotiate(r.Header.Get("Accept-Encoding"))
			if encoding == "" || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			cw := &responseWriter{ResponseWriter: w, encoding: encoding, config: config}
			defer cw.Close()
			next.ServeHTTP(cw, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	encoding    string
	config      Config
	encoder     io.WriteCloser
	wroteHeader bool
}

func (cw *responseWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true

	h := cw.Header()
	if code != http.StatusNoContent && code != http.StatusNotModified && h.Get("Content-Encoding") == "" {
		h.Set("Content-Encoding", cw.encoding)
		h.Del("Content-Length")
		switch cw.encoding {
		case EncodingBrotli:
			cw.encoder = brotli.NewWriterLevel(cw.ResponseWriter, cw.config.BrotliLevel)
		default:
			gw, err := gzip.NewWriterLevel(cw.ResponseWriter, cw.config.GzipLevel)
			if err != nil {
				gw = gzip.NewWriter(cw.ResponseWriter)
			}
			cw.encoder = gw
		}
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *responseWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.encoder == nil {
		return cw.ResponseWriter.Write(b)
	}
	return cw.encoder.Write(b)
}

// Close flushes the encoder.
func (cw *responseWriter) Close() error {
	if cw.encoder == nil {
		return nil
	}
	return cw.encoder.Close()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (cw *responseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
