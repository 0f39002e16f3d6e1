package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okdaichi/sdnctl/internal/controller"
)

const adminShutdownTimeout = 2 * time.Second

// topologySnapshotter is implemented by *controller.Server; a narrow
// interface keeps the admin HTTP server decoupled from the controller
// package's full API.
type topologySnapshotter interface {
	State() *controller.State
}

// serveAdmin starts a small HTTP listener exposing /health and /metrics
// (SPEC_FULL.md §4 "Supplemented Features"). When snap is non-nil, it
// also exposes a read-only /topology debug endpoint (controller only).
// The listener is shut down when ctx is cancelled.
func serveAdmin(ctx context.Context, addr string, snap topologySnapshotter) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())
	if snap != nil {
		mux.HandleFunc("/topology", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(snap.State().Snapshot())
		})
	}

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Warn("admin: http server stopped", "addr", addr, "error", err)
	}
}
