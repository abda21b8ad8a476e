package id

import (
	"context"
	"crypto/md5"
	"io"

	"github.com/gofrs/uuid"
)

// GenTraceID new normal traceID
func GenTraceID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// TraceIDFrom new traceID from text
func TraceIDFrom(text string) string {
	h := md5.New()
	_, _ = io.WriteString(h, text)
	sum := h.Sum(nil)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum).String()
}

type traceKey struct{}

// WithTraceID returns a copy of ctx carrying traceID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFromContext returns the trace id carried by ctx, or a new one
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceKey{}).(string); ok && traceID != "" {
		return traceID
	}

	return GenTraceID()
}
