package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/relver/internal/logfields"
	"git.home.luguber.info/inful/relver/internal/scan"
)

// httpHandler keeps the daemon decoupled from the metrics implementation.
type httpHandler = http.Handler

// statusHandler serves the read-only HTTP surface.
type statusHandler struct {
	daemon *Daemon
}

func newStatusHandler(d *Daemon) *statusHandler {
	return &statusHandler{daemon: d}
}

// statusResponse is the /api/status payload.
type statusResponse struct {
	Status    string       `json:"status"`
	StartedAt time.Time    `json:"started_at"`
	LastScan  *time.Time   `json:"last_scan,omitempty"`
	Scan      *scan.Result `json:"scan,omitempty"`
}

func (h *statusHandler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, lastScan, startedAt := h.daemon.snapshot()
	resp := statusResponse{Status: "running", StartedAt: startedAt, Scan: res}
	if !lastScan.IsZero() {
		resp.LastScan = &lastScan
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("Status encode failed", logfields.Error(err))
	}
}

func (h *statusHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (d *Daemon) startHTTP(metrics httpHandler) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.handler.healthz)
	mux.HandleFunc("/api/status", d.handler.status)
	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}

	server := &http.Server{
		Addr:              d.cfg.Daemon.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", logfields.Error(err))
		}
	}()
	return server
}
