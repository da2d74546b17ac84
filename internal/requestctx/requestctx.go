// Package requestctx carries per-request values across package boundaries
// without creating import cycles between middleware and handlers.
package requestctx

import "context"

type ctxKey int

const keyRequestID ctxKey = iota

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}
