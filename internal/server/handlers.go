package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/decisionlog"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/engine"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/metrics"
)

// tickRequest is the POST /tick body. Personas, when present, feed the
// role-population fallback for this tick.
type tickRequest struct {
	State    *domain.EconomyState   `json:"state"`
	Events   []domain.EconomicEvent `json:"events,omitempty"`
	Personas map[string]float64     `json:"personas,omitempty"`
}

// handleTick runs one pipeline pass for a submitted snapshot.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if len(req.Personas) > 0 {
		s.engine.RecordPersonas(req.Personas)
	}
	result, err := s.engine.ProcessTick(req.State, req.Events)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":            "invalid_state",
				"validationErrors": verr.Result.Errors,
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, "tick_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleDiagnose evaluates a snapshot without recording anything.
func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	result, err := s.engine.Diagnose(req.State, req.Events)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			s.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":            "invalid_state",
				"validationErrors": verr.Result.Errors,
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, "diagnose_failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleEvent buffers one push-mode event for the next tick.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.EconomicEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := s.engine.BufferEvent(ev); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "buffered"})
}

// handleHealth reports engine status plus host system load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Status()
	response := map[string]interface{}{
		"health":      status.Health,
		"tick":        status.Tick,
		"mode":        status.Mode,
		"activePlans": status.ActivePlans,
		"uptime":      status.Uptime,
		"divergence":  status.Divergence,
		"system":      systemLoad(),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// systemLoad samples process-host CPU and memory. Failures degrade to
// partial output rather than failing the health check.
func systemLoad() map[string]interface{} {
	load := map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		load["cpuPercent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		load["memPercent"] = vm.UsedPercent
	}
	return load
}

// handleConfig applies runtime configuration updates.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var update engine.ConfigUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := s.engine.Configure(update); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"mode":   s.engine.Mode(),
	})
}

// handlePrinciples lists the registered principle catalog.
func (s *Server) handlePrinciples(w http.ResponseWriter, r *http.Request) {
	catalog := s.engine.Principles()
	principles := make([]map[string]interface{}, 0, len(catalog))
	for _, p := range catalog {
		principles = append(principles, map[string]interface{}{
			"id":          p.ID,
			"name":        p.Name,
			"category":    p.Category,
			"description": p.Description,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(principles),
		"principles": principles,
	})
}

// handleDecisions returns recent decision entries, newest first, optionally
// filtered on tick range, principle, parameter and result.
func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 100)

	filter := decisionlog.Filter{
		Since:     queryInt(q.Get("since"), 0),
		Until:     queryInt(q.Get("until"), 0),
		Issue:     q.Get("issue"),
		Parameter: q.Get("parameter"),
		Result:    domain.DecisionResult(q.Get("result")),
	}

	entries := s.engine.Decisions().Query(filter)
	// Newest first, bounded by limit.
	if len(entries) > 1 {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"decisions": entries})
}

// handleDecisionsExport streams the full retained log in one format.
func (s *Server) handleDecisionsExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	data, err := s.engine.Decisions().Export(format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_format", err.Error())
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json")
	case "msgpack":
		w.Header().Set("Content-Type", "application/msgpack")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write export")
	}
}

// handleMetricsQuery returns one metric's history at a resolution.
func (s *Server) handleMetricsQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metric := q.Get("metric")
	if metric == "" {
		s.writeError(w, http.StatusBadRequest, "missing_metric", "metric query parameter is required")
		return
	}

	req := metrics.QueryRequest{
		Metric:     metric,
		Resolution: metrics.Resolution(q.Get("resolution")),
	}
	if v := q.Get("from"); v != "" {
		from := queryInt(v, 0)
		req.From = &from
	}
	if v := q.Get("to"); v != "" {
		to := queryInt(v, 0)
		req.To = &to
	}

	points := s.engine.Store().Query(req)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"metric": metric,
		"points": points,
	})
}

// handleRegistryList returns all registered parameters.
func (s *Server) handleRegistryList(w http.ResponseWriter, r *http.Request) {
	params := s.engine.Registry().List()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":      len(params),
		"parameters": params,
	})
}

// handleRegistryRegister registers or replaces one parameter.
func (s *Server) handleRegistryRegister(w http.ResponseWriter, r *http.Request) {
	var param domain.RegisteredParameter
	if err := json.NewDecoder(r.Body).Decode(&param); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := s.engine.Registry().Register(param); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

// handleRegistryValidate reports registry configuration problems.
func (s *Server) handleRegistryValidate(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Registry().Validate())
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
