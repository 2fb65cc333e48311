// Package middleware provides response compression for large evaluation payloads.
package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// CompressionConfig holds configuration for response compression
type CompressionConfig struct {
	MinSize          int      // responses smaller than this are sent as is
	CompressionLevel int      // gzip level, 1-9
	ContentTypes     []string // prefixes of compressible content types
}

// DefaultCompressionConfig returns the default compression configuration
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize:          1024,
		CompressionLevel: gzip.DefaultCompression,
		ContentTypes:     []string{"application/json", "text/plain"},
	}
}

// Compression gzips buffered responses once they cross MinSize
type Compression struct {
	config CompressionConfig
	stats  CompressionStats
	pool   sync.Pool
}

// NewCompression creates the middleware. An invalid level falls back to the default.
func NewCompression(config CompressionConfig) *Compression {
	level := config.CompressionLevel
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	config.CompressionLevel = level

	return &Compression{
		config: config,
		pool: sync.Pool{
			New: func() any {
				gz, _ := gzip.NewWriterLevel(io.Discard, level)
				return gz
			},
		},
	}
}

// Handler returns the gin middleware
func (cm *Compression) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		c.Header("Vary", "Accept-Encoding")

		c.Next()

		c.Writer = bw.ResponseWriter
		cm.flush(bw)
	}
}

func (cm *Compression) flush(bw *bufferedWriter) {
	body := bw.buf.Bytes()
	w := bw.ResponseWriter

	if w.Written() || w.Header().Get("Content-Encoding") != "" || len(body) < cm.config.MinSize || !cm.shouldCompress(w.Header().Get("Content-Type")) || !bodyAllowed(w.Status()) {
		cm.stats.record(int64(len(body)), int64(len(body)), false)
		if len(body) > 0 {
			_, _ = w.Write(body)
		}
		return
	}

	var out bytes.Buffer
	gz := cm.pool.Get().(*gzip.Writer)
	gz.Reset(&out)
	_, err := gz.Write(body)
	if err == nil {
		err = gz.Close()
	}
	cm.pool.Put(gz)
	if err != nil {
		cm.stats.record(int64(len(body)), int64(len(body)), false)
		_, _ = w.Write(body)
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	cm.stats.record(int64(len(body)), int64(out.Len()), true)
	_, _ = w.Write(out.Bytes())
}

func (cm *Compression) shouldCompress(contentType string) bool {
	for _, ct := range cm.config.ContentTypes {
		if strings.HasPrefix(contentType, ct) {
			return true
		}
	}
	return false
}

func bodyAllowed(status int) bool {
	return status != http.StatusNoContent && status != http.StatusNotModified && status >= http.StatusOK
}

// Stats returns a snapshot of what the middleware has seen
func (cm *Compression) Stats() map[string]any {
	return cm.stats.snapshot()
}

// bufferedWriter holds the body until the handler chain returns
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(data []byte) (int, error) {
	return w.buf.Write(data)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

func (w *bufferedWriter) Size() int {
	return w.buf.Len()
}

// CompressionStats tracks compression statistics
type CompressionStats struct {
	totalRequests      atomic.Int64
	compressedRequests atomic.Int64
	totalBytes         atomic.Int64
	compressedBytes    atomic.Int64
}

func (cs *CompressionStats) record(originalSize, sentSize int64, compressed bool) {
	cs.totalRequests.Add(1)
	cs.totalBytes.Add(originalSize)
	if compressed {
		cs.compressedRequests.Add(1)
		cs.compressedBytes.Add(sentSize)
	}
}

func (cs *CompressionStats) snapshot() map[string]any {
	total := cs.totalBytes.Load()
	compressed := cs.compressedBytes.Load()

	ratio := 0.0
	if total > 0 {
		ratio = float64(compressed) / float64(total)
	}

	return map[string]any{
		"total_requests":      cs.totalRequests.Load(),
		"compressed_requests": cs.compressedRequests.Load(),
		"total_bytes":         total,
		"compressed_bytes":    compressed,
		"compression_ratio":   ratio,
	}
}
