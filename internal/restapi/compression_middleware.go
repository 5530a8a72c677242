package restapi

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzhttp"
)

// CompressionConfig controls gzip for API responses.
type CompressionConfig struct {
	MinSize int
	Level   int
	// SkipPrefixes lists URL path prefixes served as-is. Uploaded bus images
	// are already compressed, so gzip only costs CPU there.
	SkipPrefixes []string
}

func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:      1024,
		Level:        6,
		SkipPrefixes: []string{"/blobs/"},
	}
}

// NewCompressionMiddleware gzips responses above MinSize for clients that
// accept it, except under the configured skip prefixes.
func NewCompressionMiddleware(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		compressed := gzhttp.GzipHandler(next)
		if wrapper, err := gzhttp.NewWrapper(
			gzhttp.MinSize(config.MinSize),
			gzhttp.CompressionLevel(config.Level),
		); err == nil {
			compressed = wrapper(next)
		}

		if len(config.SkipPrefixes) == 0 {
			return compressed
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range config.SkipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			compressed.ServeHTTP(w, r)
		})
	}
}

// CompressionMiddleware applies gzip compression with default settings
func CompressionMiddleware(next http.Handler) http.Handler {
	return NewCompressionMiddleware(DefaultCompressionConfig())(next)
}
