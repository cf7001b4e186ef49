package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/refyne-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxClientIDLen = 128
)

// AttachTraceContext tags every request with a request id and a trace id.
// Client supplied ids are honored when they are short and printable; the
// trace id otherwise comes from the active span, then a fresh uuid.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := ctxutil.RequestIDs{
			RequestID: clientID(c.GetHeader(headerRequestID)),
			TraceID:   clientID(c.GetHeader(headerTraceID)),
		}
		if ids.RequestID == "" {
			ids.RequestID = uuid.NewString()
		}
		if ids.TraceID == "" {
			if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
				ids.TraceID = sc.TraceID().String()
			} else {
				ids.TraceID = uuid.NewString()
			}
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequestIDs(c.Request.Context(), ids))
		c.Set("trace_id", ids.TraceID)
		c.Set("request_id", ids.RequestID)
		c.Header(headerTraceID, ids.TraceID)
		c.Header(headerRequestID, ids.RequestID)
		c.Next()
	}
}

func clientID(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > maxClientIDLen {
		return ""
	}
	for _, r := range v {
		if r < 0x21 || r > 0x7e {
			return ""
		}
	}
	return v
}
