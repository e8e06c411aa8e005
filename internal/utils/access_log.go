package utils

import (
	"net/http"
	"strconv"
	"time"

	"ms-gallery/internal/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// AccessLog logs method, path, status and latency of every request.
func AccessLog(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			// the wrapper keeps http.Flusher, the event stream needs it
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.LogAPI(r.Method, r.URL.Path, strconv.Itoa(status), time.Since(start).String())
		})
	}
}
