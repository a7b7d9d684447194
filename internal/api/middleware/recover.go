package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Togather-Foundation/agenda/internal/api/problem"
)

// Recover turns a panicking handler into a 500 envelope. http.ErrAbortHandler
// is re-raised so the server can drop the connection.
func Recover(env string) func(http.Handler) http.Handler {
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

				LoggerFromContext(r.Context()).Error().
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				problem.Write(w, r, http.StatusInternalServerError, problem.TitleInternal, err, env)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
