package middleware

import (
	"context"
	"net/http"

	"github.com/vendapos/venda-backend/pkg/logger"
)

const terminalIDHeader = "X-Terminal-Id"

type terminalIDKey struct{}

// TerminalContext tags the request with the till identifier the client
// sends, so logs and idempotency scopes distinguish concurrent cashiers.
func TerminalContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			terminalID := r.Header.Get(terminalIDHeader)
			if terminalID == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), terminalIDKey{}, terminalID)
			if logg != nil {
				ctx = logg.WithTerminalID(ctx, terminalID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TerminalIDFromContext returns the tagged terminal ID, empty when absent.
func TerminalIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(terminalIDKey{}).(string); ok {
		return value
	}
	return ""
}
