package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fixora/storefront/pkg/requestctx"
)

const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDMiddleware ensures every request/response carries a correlation ID
// and records it, along with the client address ips resolves, on the request context.
func CorrelationIDMiddleware(next http.Handler, ips *ClientIPResolver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(CorrelationIDHeader)
		if cid == "" || len(cid) > 128 {
			cid = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, cid)

		ctx := requestctx.WithCorrelationID(r.Context(), cid)
		ctx = requestctx.WithClientIP(ctx, ips.ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
