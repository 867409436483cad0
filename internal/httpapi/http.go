package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"arxiv_digest/config"
	"arxiv_digest/digest"
	"arxiv_digest/internal/events"
	"arxiv_digest/internal/jobs"
	"arxiv_digest/internal/metrics"
	"arxiv_digest/internal/store"
)

// Router builds HTTP handlers for /api, /ops and /metrics.
type Router struct {
	cfg    config.Config
	store  *store.Store
	runner *jobs.Runner
	bus    *events.Bus
}

func NewRouter(cfg config.Config, st *store.Store, runner *jobs.Runner, bus *events.Bus) *Router {
	return &Router{cfg: cfg, store: st, runner: runner, bus: bus}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ops/status", r.status)
	mux.HandleFunc("/ops/health", r.health)
	mux.HandleFunc("/ops/generate", r.generate)
	mux.HandleFunc("/ops/cleanup", r.cleanup)
	mux.HandleFunc("/ops/backfill", r.backfill)
	mux.HandleFunc("/ops/runs", r.runs)
	mux.HandleFunc("/ops/runs/", r.runDetail)
	mux.HandleFunc("/ops/events", r.events)
	mux.HandleFunc("/api/reports", r.reports)
	mux.Handle("/metrics", metrics.Handler())
}

func (r *Router) status(w http.ResponseWriter, req *http.Request) {
	runs, _ := r.store.ListRuns(req.Context(), 10)
	reports, err := digest.SnapshotNames(r.cfg.OutputDir)
	if err != nil {
		reports = nil
	}
	respondJSON(w, map[string]any{
		"runs":         runs,
		"report_count": len(reports),
		"pending_jobs": r.runner.Pending(),
		"source_dir":   r.cfg.SourceDir,
		"output_dir":   r.cfg.OutputDir,
	})
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	if err := r.store.Health(req.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) generate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Days    int   `json:"days"`
		Cleanup *bool `json:"cleanup"`
	}
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}
	params := map[string]any{}
	if body.Days > 0 {
		params["days"] = body.Days
	}
	if body.Cleanup != nil {
		params["cleanup"] = *body.Cleanup
	}
	r.enqueueOp(w, jobs.OpGenerate, params)
}

func (r *Router) cleanup(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.enqueueOp(w, jobs.OpCleanup, nil)
}

func (r *Router) backfill(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Limit int `json:"limit"`
	}
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}
	params := map[string]any{}
	if body.Limit > 0 {
		params["limit"] = body.Limit
	}
	r.enqueueOp(w, jobs.OpBackfill, params)
}

func (r *Router) enqueueOp(w http.ResponseWriter, op jobs.Op, params map[string]any) {
	queued, err := r.runner.Enqueue(op, params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	status := "queued"
	if !queued {
		status = "deduplicated"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]any{"op": string(op), "status": status}); err != nil {
		log.Warnf("write json: %v", err)
	}
}

func (r *Router) runs(w http.ResponseWriter, req *http.Request) {
	list, err := r.store.ListRuns(req.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, list)
}

func (r *Router) runDetail(w http.ResponseWriter, req *http.Request) {
	// /ops/runs/{id} or /ops/runs/{id}/logs
	path := strings.TrimPrefix(req.URL.Path, "/ops/runs/")
	if id, ok := strings.CutSuffix(path, "/logs"); ok {
		lines, err := r.store.RunLogs(req.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respondJSON(w, lines)
		return
	}
	run, err := r.store.GetRun(req.Context(), path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.NotFound(w, req)
		return
	}
	respondJSON(w, run)
}

// events streams run completions as server-sent events.
func (r *Router) events(w http.ResponseWriter, req *http.Request) {
	if r.bus == nil {
		http.Error(w, "events unavailable", http.StatusServiceUnavailable)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	flusher.Flush()

	ch := r.bus.Subscribe()
	defer r.bus.Unsubscribe(ch)
	for {
		select {
		case <-req.Context().Done():
			return
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (r *Router) reports(w http.ResponseWriter, req *http.Request) {
	names, err := digest.SnapshotNames(r.cfg.OutputDir)
	if err != nil {
		// No output dir just means nothing has been generated yet.
		if !os.IsNotExist(err) {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		names = nil
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, names)
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warnf("write json: %v", err)
	}
}
