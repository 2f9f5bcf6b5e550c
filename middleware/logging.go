package middleware

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const requestIDKey contextKey = "request_id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger stamps every request with an X-Request-ID and logs method,
// path, status and duration once the handler returns. An incoming
// X-Request-ID is kept.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		elapsed := time.Since(start).Round(time.Microsecond)
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			log.Printf("[%s] %s %s %d %s trace=%s", requestID, r.Method, r.URL.Path, rec.status, elapsed, sc.TraceID())
			return
		}
		log.Printf("[%s] %s %s %d %s", requestID, r.Method, r.URL.Path, rec.status, elapsed)
	})
}

// GetRequestID returns the id assigned by RequestLogger, or "".
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}
