package inspect

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/iockit/errors"
	"github.com/kbukum/iockit/logger"
)

const requestIDHeader = "X-Request-Id"

// recovery turns a panic in a handler into a 500 INTERNAL_ERROR response.
func recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", map[string]interface{}{
					logger.FieldError: fmt.Sprintf("%v", rec),
					"stack":           string(debug.Stack()),
					"path":            c.Request.URL.Path,
					"method":          c.Request.Method,
				})
				respondError(c, errors.Internal(fmt.Errorf("%v", rec)))
			}
		}()
		c.Next()
	}
}

// requestID echoes X-Request-Id, generating one when absent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs every request except /health.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logger.DurationFields("http", time.Since(start))
		fields["method"] = c.Request.Method
		fields["path"] = c.Request.URL.Path
		fields["status"] = status
		fields["request_id"] = c.GetString("request_id")

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request completed", fields)
		case status >= http.StatusBadRequest:
			log.Warn("request completed", fields)
		default:
			log.Debug("request completed", fields)
		}
	}
}
