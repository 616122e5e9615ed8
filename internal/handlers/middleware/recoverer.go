package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/nkiryanov/usersvc/internal/handlers/render"
)

// Recoverer turns a panic into 500 and logs the stack. Clients never see the panic value
func Recoverer(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.Error(
					"panic recovered",
					"error", fmt.Sprint(rec),
					"method", r.Method,
					"uri", r.RequestURI,
					"stack", string(debug.Stack()),
				)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
