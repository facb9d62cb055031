package http

import "finalyze/internal/cache"

// renderKey identifies a render body in the cache. The output format is not
// part of the key because one entry holds every serialization.
func renderKey(body []byte) string {
	return cache.Digest([]byte("render"), body)
}
