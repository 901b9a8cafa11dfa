package requestdata

import (
	"context"

	"github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData carries the per-request identity resolved by the auth
// middleware. UserID is uuid.Nil for anonymous requests.
type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	IsSuperuser bool
}
