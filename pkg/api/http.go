// Package api exposes the draft store over HTTP for the capture UI and
// diagnostics tooling. The session state machine itself stays in-process;
// this surface covers draft reads, deletion, renames, transfer and health.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"draftstore/pkg/api/handlers"
	"draftstore/pkg/logging"
	"draftstore/pkg/store"
)

// Options configures the HTTP surface.
type Options struct {
	Deps           handlers.Deps
	RateLimitRPS   float64
	RateLimitBurst int
}

// Handler returns the service's HTTP handler.
func Handler(opts Options) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !store.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"store not ready"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterDrafts(v1, opts.Deps)
	handlers.RegisterTransfer(v1, opts.Deps)

	pool := &limiterPool{rps: opts.RateLimitRPS, burst: opts.RateLimitBurst}
	return rateLimit(pool, logRequests(r))
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.LogRequest(r)
		next.ServeHTTP(w, r)
	})
}
