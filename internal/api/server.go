// Package api exposes the switching run over HTTP: live status, the switch
// event log, camera usage and an HTML report. It is a telemetry surface
// only; the only mutation it offers is a switch-state reset.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/abdullah-azi/football-highlights/internal/events"
	"github.com/abdullah-azi/football-highlights/internal/httputil"
	"github.com/abdullah-azi/football-highlights/internal/monitoring"
	"github.com/abdullah-azi/football-highlights/internal/report"
	"github.com/abdullah-azi/football-highlights/internal/switcher"
)

// Server serves the telemetry API for one orchestrator and its event store.
type Server struct {
	orch  *switcher.Orchestrator
	store *events.Store
}

// NewServer builds the API server.
func NewServer(orch *switcher.Orchestrator, store *events.Store) *Server {
	return &Server{orch: orch, store: store}
}

// Register installs the API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.logged(s.handleStatus))
	mux.HandleFunc("GET /api/events", s.logged(s.handleEvents))
	mux.HandleFunc("GET /api/usage", s.logged(s.handleUsage))
	mux.HandleFunc("GET /api/sessions", s.logged(s.handleSessions))
	mux.HandleFunc("POST /api/reset", s.logged(s.handleReset))
	mux.HandleFunc("GET /report", s.logged(s.handleReport))
}

// logged wraps a handler with request logging.
func (s *Server) logged(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h(w, r)
		monitoring.Logf("api: %s %s (%v)", r.Method, r.URL.Path, time.Since(start))
	}
}

// sessionParam returns the requested session, defaulting to the live run.
func (s *Server) sessionParam(r *http.Request) string {
	if sess := r.URL.Query().Get("session"); sess != "" {
		return sess
	}
	return s.orch.SessionID()
}

func limitParam(r *http.Request, def int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.store.ListSwitchEvents(s.sessionParam(r), limitParam(r, 1000))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if evs == nil {
		evs = []switcher.SwitchEvent{}
	}
	httputil.WriteJSON(w, http.StatusOK, evs)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionParam(r)
	if sess == s.orch.SessionID() {
		// Live counters are fresher than the store for the current run.
		httputil.WriteJSON(w, http.StatusOK, s.orch.Snapshot().Usage)
		return
	}
	usage, err := s.store.CameraUsage(sess)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, usage)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.Sessions(limitParam(r, 100))
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if sessions == nil {
		sessions = []events.Session{}
	}
	httputil.WriteJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.orch.RequestReset()
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reset requested"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionParam(r)
	evs, err := s.store.ListSwitchEvents(sess, 0)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	usage, err := s.store.CameraUsage(sess)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if sess == s.orch.SessionID() {
		usage = s.orch.Snapshot().Usage
	}
	gaps, err := s.store.SwitchGaps(sess)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteHTML(w, sess, evs, usage, gaps); err != nil {
		monitoring.Logf("api: render report: %v", err)
	}
}
