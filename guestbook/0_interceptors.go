package guestbook

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fulldump/box"
	"github.com/go-json-experiment/json"
)

// AccessLog prints one line per request with origin, method, url and
// duration.
func AccessLog(l *log.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				l.Println(now.UTC().Format(time.RFC3339Nano), formatRemoteAddr(r), r.Method, r.URL.String(), time.Since(now))
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}
	if i := strings.LastIndex(r.RemoteAddr, ":"); i > 0 {
		return r.RemoteAddr[:i]
	}
	return r.RemoteAddr
}

// RecoverFromPanic is the process boundary for failures the actions chose
// not to handle: log the stack, answer a generic JSON 500.
func RecoverFromPanic(l *log.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				l.Printf("panic: %v\n%s", v, debug.Stack())
				w := box.GetResponse(ctx)
				w.WriteHeader(http.StatusInternalServerError)
				json.MarshalWrite(w, errorBody("internal error", "unexpected error"))
			}()

			next(ctx)
		}
	}
}

// PrettyErrorInterceptor turns errors parked on the box context into the
// JSON error envelope, mapping the router's own errors to their statuses.
func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		if err == box.ErrResourceNotFound {
			w.WriteHeader(http.StatusNotFound)
			json.MarshalWrite(w, errorBody(err.Error(), fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.Path)))
			return
		}

		if err == box.ErrMethodNotAllowed {
			w.WriteHeader(http.StatusMethodNotAllowed)
			json.MarshalWrite(w, errorBody(err.Error(), fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method)))
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
		json.MarshalWrite(w, errorBody(err.Error(), "unexpected error"))
	}
}

func errorBody(message, description string) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"message":     message,
			"description": description,
		},
	}
}
