// Package web exposes the engine's operations over a small JSON HTTP
// API: triggering sync and clear runs, stopping the active run, and
// reading or updating the configuration.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"sduisync/internal/config"
	"sduisync/internal/sdui"
	"sduisync/internal/sync"
)

// Server routes HTTP requests to engine operations.
type Server struct {
	engine *sync.Engine
	mux    *http.ServeMux
}

// NewServer constructs a new Server around the engine.
func NewServer(engine *sync.Engine) *Server {
	s := &Server{
		engine: engine,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves the API on the given address until the listener
// fails.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/sync", s.handleSync)
	s.mux.HandleFunc("POST /api/sync/today", s.handleSyncToday)
	s.mux.HandleFunc("POST /api/sync/week", s.handleSyncWeek)
	s.mux.HandleFunc("POST /api/clear", s.handleClear)
	s.mux.HandleFunc("POST /api/clear/weeks", s.handleClearWeeks)
	s.mux.HandleFunc("POST /api/stop", s.handleStop)
	s.mux.HandleFunc("POST /api/logs/clear", s.handleClearLogs)
	s.mux.HandleFunc("GET /api/config", s.handleGetConfig)
	s.mux.HandleFunc("POST /api/config", s.handleUpdateConfig)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusResponse is the JSON response shape for /api/status.
type statusResponse struct {
	Running bool     `json:"running"`
	Logs    []string `json:"logs"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	logs, running := s.engine.Status()
	if logs == nil {
		logs = []string{}
	}
	writeJSON(w, http.StatusOK, statusResponse{Running: running, Logs: logs})
}

// syncRequest carries a custom date range, both bounds inclusive.
type syncRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// parseRangeBody decodes a {"start","end"} body into an ordered range.
// On failure it writes the 400 response itself and reports !ok.
func (s *Server) parseRangeBody(w http.ResponseWriter, r *http.Request) (rng sdui.Range, ok bool) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return rng, false
	}

	loc := s.engine.Location()
	start, err := time.ParseInLocation("2006-01-02", req.Start, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", req.Start))
		return rng, false
	}
	end, err := time.ParseInLocation("2006-01-02", req.End, loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", req.End))
		return rng, false
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end date before start date")
		return rng, false
	}

	return sdui.Range{Start: start, End: end}, true
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.parseRangeBody(w, r)
	if !ok {
		return
	}
	s.trigger(w, rng, s.engine.TriggerSync, "sync")
}

func (s *Server) handleSyncToday(w http.ResponseWriter, _ *http.Request) {
	today := time.Now().In(s.engine.Location())
	s.trigger(w, sync.DayRange(today), s.engine.TriggerSync, "sync")
}

// weekRequest names one ISO week within the configured sync year.
type weekRequest struct {
	Week int `json:"week"`
}

func (s *Server) handleSyncWeek(w http.ResponseWriter, r *http.Request) {
	var req weekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Week < 1 || req.Week > 53 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid week %d", req.Week))
		return
	}

	year := s.engine.GetConfig().SyncYear
	s.trigger(w, sync.WeekRange(year, req.Week, s.engine.Location()), s.engine.TriggerSync, "sync")
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	rng, ok := s.parseRangeBody(w, r)
	if !ok {
		return
	}
	s.trigger(w, rng, s.engine.TriggerClear, "clear")
}

// clearWeeksRequest names an inclusive ISO week span within the
// configured sync year.
type clearWeeksRequest struct {
	StartWeek int `json:"start_week"`
	EndWeek   int `json:"end_week"`
}

func (s *Server) handleClearWeeks(w http.ResponseWriter, r *http.Request) {
	var req clearWeeksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.StartWeek < 1 || req.StartWeek > 53 || req.EndWeek < req.StartWeek || req.EndWeek > 53 {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid week span %d-%d", req.StartWeek, req.EndWeek))
		return
	}

	year := s.engine.GetConfig().SyncYear
	loc := s.engine.Location()
	rng := sdui.Range{
		Start: sync.WeekRange(year, req.StartWeek, loc).Start,
		End:   sync.WeekRange(year, req.EndWeek, loc).End,
	}
	s.trigger(w, rng, s.engine.TriggerClear, "clear")
}

// trigger starts a run in the background and reports whether it was
// accepted. The engine enforces single-flight itself; the pre-check
// here only makes the refusal visible to the caller.
func (s *Server) trigger(w http.ResponseWriter, rng sdui.Range, start func(sdui.Range), kind string) {
	if _, running := s.engine.Status(); running {
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}

	start(rng)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": kind + " started",
		"start":  rng.Start.Format("2006-01-02"),
		"end":    rng.End.Format("2006-01-02"),
	})
}

func (s *Server) handleStop(w http.ResponseWriter, _ *http.Request) {
	if !s.engine.RequestStop() {
		writeError(w, http.StatusConflict, "no run in progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stop requested"})
}

func (s *Server) handleClearLogs(w http.ResponseWriter, _ *http.Request) {
	s.engine.ClearLogs()
	writeJSON(w, http.StatusOK, map[string]string{"status": "logs cleared"})
}

// configResponse is the JSON view of the configuration. The SDUI token
// is reported as set or unset, never echoed back.
type configResponse struct {
	TokenSet   bool   `json:"token_set"`
	UserID     string `json:"user_id"`
	CalendarID string `json:"calendar_id"`
	SyncYear   int    `json:"sync_year"`
	Timezone   string `json:"timezone"`
	Provider   string `json:"provider"`
}

func configView(cfg config.Config) configResponse {
	return configResponse{
		TokenSet:   cfg.SDUIToken != "",
		UserID:     cfg.SDUIUserID,
		CalendarID: cfg.CalendarID,
		SyncYear:   cfg.SyncYear,
		Timezone:   cfg.Timezone,
		Provider:   cfg.Provider,
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, configView(s.engine.GetConfig()))
}

// configUpdateRequest carries a partial configuration change. Absent
// fields are left unchanged.
type configUpdateRequest struct {
	Token      *string `json:"token"`
	UserID     *string `json:"user_id"`
	CalendarID *string `json:"calendar_id"`
	SyncYear   *int    `json:"sync_year"`
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SyncYear != nil && (*req.SyncYear < 2000 || *req.SyncYear > 2100) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid sync year %d", *req.SyncYear))
		return
	}

	s.engine.UpdateConfig(sync.Update{
		Token:      req.Token,
		UserID:     req.UserID,
		CalendarID: req.CalendarID,
		SyncYear:   req.SyncYear,
	})
	writeJSON(w, http.StatusOK, configView(s.engine.GetConfig()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
