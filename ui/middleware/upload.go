package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adherents/internal"
)

// LimitUploadSize caps request bodies at maxBytes; reads past the cap fail
// and the handler reports the upload as too large.
func LimitUploadSize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequestLogger logs one line per request through logger
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	logger = logger.With("HTTP")
	return func(c *gin.Context) {
		c.Next()
		logger.Info("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
