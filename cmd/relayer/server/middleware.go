package server

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// RequestLogger writes one structured log line per request, the same
// logrus.WithFields pattern the teacher's cmd/xchainserver middleware
// uses, extended with a latency field since this surface is long-lived
// (unlike a one-shot CLI invocation).
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"latency": time.Since(start),
		}).Info("admin api request")
	})
}

// JSONHeaders sets Content-Type application/json for every response.
func JSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
