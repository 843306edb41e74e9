package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/fancyjob/internal/history"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Version string          `json:"version,omitempty"`
	Day     string          `json:"day"`
	Runs    int             `json:"runs"`
	Times   []string        `json:"times"`
	Metrics MetricsSnapshot `json:"metrics"`
	Recent  []recentRun     `json:"recent,omitempty"`
}

type recentRun struct {
	Kind      string    `json:"kind"`
	Counter   int       `json:"counter,omitempty"`
	RunCount  int       `json:"run_count,omitempty"`
	Message   string    `json:"message,omitempty"`
	Pushed    bool      `json:"pushed"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// statusServer builds the status HTTP server.
func (d *Daemon) statusServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Get("/health", d.handleHealth())
	r.Get("/status", d.handleStatus())
	r.Get("/metrics", d.handleMetrics())

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (d *Daemon) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

func (d *Daemon) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		resp := StatusResponse{
			Version: d.cfg.Version,
			Day:     d.plannedDay,
			Runs:    d.plan.RunCount,
			Times:   planTimes(d.plan),
			Metrics: d.metrics.Snapshot(),
		}
		d.mu.Unlock()

		if d.cfg.History != nil {
			if runs, err := d.cfg.History.Recent(r.Context(), 10); err == nil {
				resp.Recent = toRecent(runs)
			}
		}

		writeJSON(w, resp)
	}
}

func (d *Daemon) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, d.metrics.Snapshot())
	}
}

func toRecent(runs []history.Run) []recentRun {
	out := make([]recentRun, len(runs))
	for i, run := range runs {
		out[i] = recentRun{
			Kind:      run.Kind,
			Counter:   run.Counter,
			RunCount:  run.RunCount,
			Message:   run.Message,
			Pushed:    run.Pushed,
			Error:     run.Error,
			CreatedAt: run.CreatedAt,
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
