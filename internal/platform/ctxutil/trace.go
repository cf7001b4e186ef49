package ctxutil

import "context"

type requestIDsKey struct{}

// RequestIDs correlates one inbound request across logs and spans.
type RequestIDs struct {
	TraceID   string
	RequestID string
}

func WithRequestIDs(ctx context.Context, ids RequestIDs) context.Context {
	return context.WithValue(Default(ctx), requestIDsKey{}, ids)
}

func RequestIDsFrom(ctx context.Context) (RequestIDs, bool) {
	if ctx == nil {
		return RequestIDs{}, false
	}
	ids, ok := ctx.Value(requestIDsKey{}).(RequestIDs)
	return ids, ok
}

// LogArgs returns trace_id / request_id pairs for a structured log call.
func LogArgs(ctx context.Context) []any {
	ids, ok := RequestIDsFrom(ctx)
	if !ok {
		return nil
	}
	var out []any
	if ids.TraceID != "" {
		out = append(out, "trace_id", ids.TraceID)
	}
	if ids.RequestID != "" {
		out = append(out, "request_id", ids.RequestID)
	}
	return out
}
