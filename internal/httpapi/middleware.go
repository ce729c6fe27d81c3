package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unkn0wn-root/invcache"
)

const HeaderRequestID = "X-Request-ID"

// requestLogger tags each request with an id and logs it once it completes.
func requestLogger(log invcache.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(HeaderRequestID, id)

		c.Next()

		f := invcache.Fields{
			"request_id": id,
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			f["err"] = c.Errors.String()
			log.Warn("request failed", f)
			return
		}
		log.Info("request", f)
	}
}
