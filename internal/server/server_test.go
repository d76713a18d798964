package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poubelles-propres/zones-cli/internal/export"
	"github.com/poubelles-propres/zones-cli/internal/model"
	"github.com/poubelles-propres/zones-cli/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return New(st, Options{Port: 8080, AllowedOrigins: []string{"*"}}), st
}

func apiZone(zoneID, rank int, score float64, dept string) model.ScoredZone {
	return model.ScoredZone{
		Zone: model.Zone{
			ZoneID:          zoneID,
			NomCommune:      "Meaux, Villenoy +2 autres",
			CentreNom:       "Meaux",
			Region:          "Île-de-France",
			CodeDepartement: dept,
			NbCommunes:      4,
			NbMenages:       5000,
			Latitude:        48.96,
			Longitude:       2.88,
		},
		ScoreTotal:       score,
		PotentialClients: 100,
		Rank:             rank,
	}
}

func seedCompletedRun(t *testing.T, st store.Store) string {
	t.Helper()
	ctx := context.Background()
	run, err := st.CreateRun(ctx, model.RunParams{MaxRadiusKm: 15, ConversionRate: 0.02})
	require.NoError(t, err)
	zones := []model.ScoredZone{
		apiZone(0, 1, 90, "75"),
		apiZone(1, 2, 70, "69"),
		apiZone(2, 3, 50, "69"),
	}
	require.NoError(t, st.CompleteRun(ctx, run.ID, model.RunStats{QualifiedZones: len(zones)}, zones))
	return run.ID
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)
	return rr
}

type zonesResponse struct {
	RunID string             `json:"run_id"`
	Count int                `json:"count"`
	Zones []model.ScoredZone `json:"zones"`
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doGet(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestZonesNoCompletedRun(t *testing.T) {
	s, _ := newTestServer(t)

	rr := doGet(t, s, "/api/v1/zones")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "no completed run", body["error"])
}

func TestZonesLatestRun(t *testing.T) {
	s, st := newTestServer(t)
	runID := seedCompletedRun(t, st)

	rr := doGet(t, s, "/api/v1/zones")
	require.Equal(t, http.StatusOK, rr.Code)

	var body zonesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, runID, body.RunID)
	assert.Equal(t, 3, body.Count)
	require.Len(t, body.Zones, 3)
	assert.Equal(t, 1, body.Zones[0].Rank)
	assert.Equal(t, "Meaux, Villenoy +2 autres", body.Zones[0].NomCommune)
}

func TestZonesFilters(t *testing.T) {
	s, st := newTestServer(t)
	seedCompletedRun(t, st)

	rr := doGet(t, s, "/api/v1/zones?min_score=60")
	require.Equal(t, http.StatusOK, rr.Code)
	var body zonesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rr = doGet(t, s, "/api/v1/zones?dept=69")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rr = doGet(t, s, "/api/v1/zones?limit=1")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, 1, body.Zones[0].Rank)

	rr = doGet(t, s, "/api/v1/zones?min_score=abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestZonesExplicitRun(t *testing.T) {
	s, st := newTestServer(t)
	runID := seedCompletedRun(t, st)

	rr := doGet(t, s, "/api/v1/zones?run="+runID)
	require.Equal(t, http.StatusOK, rr.Code)
	var body zonesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, runID, body.RunID)

	rr = doGet(t, s, "/api/v1/zones?run=ghost")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestZoneByID(t *testing.T) {
	s, st := newTestServer(t)
	seedCompletedRun(t, st)

	rr := doGet(t, s, "/api/v1/zones/1")
	require.Equal(t, http.StatusOK, rr.Code)
	var zone model.ScoredZone
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &zone))
	assert.Equal(t, 1, zone.ZoneID)
	assert.Equal(t, 2, zone.Rank)

	rr = doGet(t, s, "/api/v1/zones/99")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doGet(t, s, "/api/v1/zones/abc")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestZonesCSV(t *testing.T) {
	s, st := newTestServer(t)
	seedCompletedRun(t, st)

	rr := doGet(t, s, "/api/v1/zones.csv")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "zones.csv")

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(export.Columns, ","), lines[0])
}

func TestRuns(t *testing.T) {
	s, st := newTestServer(t)
	ctx := context.Background()
	seedCompletedRun(t, st)

	failed, err := st.CreateRun(ctx, model.RunParams{MaxRadiusKm: 15, ConversionRate: 0.02})
	require.NoError(t, err)
	require.NoError(t, st.FailRun(ctx, failed.ID, assert.AnError))

	rr := doGet(t, s, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Count int         `json:"count"`
		Runs  []model.Run `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)

	rr = doGet(t, s, "/api/v1/runs?status=failed")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, failed.ID, body.Runs[0].ID)
}
