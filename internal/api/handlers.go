package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"smarttravel/internal/lines"
)

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"project": projectName,
		"version": version,
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"time_utc": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Summary())
}

func (s *Server) routesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.routes)
}

func (s *Server) mrtAlertsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lta.Alerts(r.Context()))
}

func (s *Server) mrtCrowdHandler(w http.ResponseWriter, r *http.Request) {
	line, ok := s.resolveLine(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.lta.Crowd(r.Context(), line))
}

func (s *Server) mrtCrowdForecastHandler(w http.ResponseWriter, r *http.Request) {
	line, ok := s.resolveLine(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.lta.CrowdForecast(r.Context(), line))
}

func (s *Server) mrtSummaryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	k := 0
	if raw := q.Get("k"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			k = n
		}
	}

	res := s.lta.Summary(r.Context(), lineParam(r), k, q.Get("from_station"), q.Get("to_station"))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) busArrivalsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stop := strings.TrimSpace(q.Get("stop"))
	if stop == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"ok":    false,
			"error": "missing_stop",
		})
		return
	}
	writeJSON(w, http.StatusOK, s.lta.BusArrivals(r.Context(), stop, strings.TrimSpace(q.Get("service"))))
}

func (s *Server) weatherHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.nea.Fetch(r.Context()))
}

// resolveLine resolves the line query parameter (default NSL) and writes the
// invalid_line response on failure.
func (s *Server) resolveLine(w http.ResponseWriter, r *http.Request) (lines.Line, bool) {
	line, norm, ok := lines.Resolve(lineParam(r))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         false,
			"error":      "invalid_line",
			"normalized": norm,
			"supported":  lines.Supported(),
		})
		return "", false
	}
	return line, true
}

func lineParam(r *http.Request) string {
	if line := r.URL.Query().Get("line"); line != "" {
		return line
	}
	return "NSL"
}
