package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/lecturly/errors"
	"github.com/kbukum/lecturly/logger"
)

// Recovery turns a panic into a logged 500 with the standard error body.
func Recovery(log *logger.Logger) Middleware {
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
				log.WithContext(r.Context()).Error("Panic recovered", map[string]interface{}{
					"error":  fmt.Sprintf("%v", rec),
					"stack":  string(debug.Stack()),
					"path":   r.URL.Path,
					"method": r.Method,
				})
				writeJSON(w, http.StatusInternalServerError, errors.Internal(nil).ToResponse())
			}()
			next.ServeHTTP(w, r)
		})
	}
}
