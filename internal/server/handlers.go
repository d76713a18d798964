package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/poubelles-propres/zones-cli/internal/export"
	"github.com/poubelles-propres/zones-cli/internal/model"
	"github.com/poubelles-propres/zones-cli/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// resolveRun picks the run the request targets: ?run= when present,
// otherwise the latest completed run. A nil run with nil error means
// nothing has completed yet.
func (s *Server) resolveRun(r *http.Request) (*model.Run, error) {
	if runID := r.URL.Query().Get("run"); runID != "" {
		return s.store.GetRun(r.Context(), runID)
	}
	return s.store.LatestRun(r.Context())
}

func (s *Server) zoneFilter(r *http.Request, runID string) (store.ZoneFilter, error) {
	filter := store.ZoneFilter{RunID: runID}
	q := r.URL.Query()

	if v := q.Get("min_score"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, err
		}
		filter.MinScore = minScore
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.Limit = limit
	}
	filter.Department = q.Get("dept")
	return filter, nil
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	run, err := s.resolveRun(r)
	if err != nil {
		respondRunError(w, err)
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "no completed run")
		return
	}

	filter, err := s.zoneFilter(r, run.ID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid filter parameter")
		return
	}

	zones, err := s.store.ListZones(r.Context(), filter)
	if err != nil {
		respondInternal(w, "list zones", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"run_id": run.ID,
		"count":  len(zones),
		"zones":  zones,
	})
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	zoneID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "zone id must be an integer")
		return
	}

	run, err := s.resolveRun(r)
	if err != nil {
		respondRunError(w, err)
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "no completed run")
		return
	}

	zone, err := s.store.GetZone(r.Context(), run.ID, zoneID)
	if err != nil {
		respondInternal(w, "get zone", err)
		return
	}
	if zone == nil {
		respondError(w, http.StatusNotFound, "zone not found")
		return
	}
	respondJSON(w, http.StatusOK, zone)
}

func (s *Server) handleZonesCSV(w http.ResponseWriter, r *http.Request) {
	run, err := s.resolveRun(r)
	if err != nil {
		respondRunError(w, err)
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "no completed run")
		return
	}

	filter, err := s.zoneFilter(r, run.ID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid filter parameter")
		return
	}

	zones, err := s.store.ListZones(r.Context(), filter)
	if err != nil {
		respondInternal(w, "list zones", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="zones.csv"`)
	if err := export.WriteCSV(w, zones); err != nil {
		zap.L().Error("api csv write failed", zap.Error(err))
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{}
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		filter.Status = model.RunStatus(v)
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid filter parameter")
			return
		}
		filter.Limit = limit
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		respondInternal(w, "list runs", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api response encode failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// respondRunError maps a failed run lookup: an explicit ?run= that does
// not exist is the client's mistake, anything else is ours.
func respondRunError(w http.ResponseWriter, err error) {
	if strings.Contains(err.Error(), "not found") {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	respondInternal(w, "resolve run", err)
}

func respondInternal(w http.ResponseWriter, action string, err error) {
	zap.L().Error("api "+action+" failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}
