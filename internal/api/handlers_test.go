package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smarttravel/internal/cache"
	"smarttravel/internal/config"
	"smarttravel/internal/lta"
	"smarttravel/internal/nea"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer builds the full handler stack against a fake Datamall.
func newTestServer(t *testing.T, upstream http.HandlerFunc) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	cfg := config.Load()
	cfg.Upstream.LTABase = up.URL
	cfg.Upstream.LTAAccountKey = "test-key"
	cfg.Upstream.NEAWeatherURL = up.URL + "/weather"
	cfg.Upstream.Timeout = 5 * time.Second

	ltaClient := lta.NewClient(cfg.Upstream, nil, logger)
	ltaSvc := lta.NewService(ltaClient, cache.New(cfg.CacheTTL, time.UTC), logger)
	neaSvc := nea.NewService(cfg.Upstream, logger)

	s := NewServer(cfg, ltaSvc, neaSvc, logger)
	api := httptest.NewServer(s.srv.Handler)
	t.Cleanup(api.Close)
	return api
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func emptyValueUpstream(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(`{"value":[]}`))
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestServer(t, emptyValueUpstream)

	status, body := getJSON(t, api.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["time_utc"])
}

func TestRootEndpoint(t *testing.T) {
	api := newTestServer(t, emptyValueUpstream)

	status, body := getJSON(t, api.URL+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "smart-travel", body["project"])
}

func TestConfigEndpointRedactsKey(t *testing.T) {
	api := newTestServer(t, emptyValueUpstream)

	status, body := getJSON(t, api.URL+"/config")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["lta_api_key_configured"])
	for k := range body {
		assert.NotContains(t, k, "key_value")
	}
}

func TestRoutesEndpointListsPatterns(t *testing.T) {
	api := newTestServer(t, emptyValueUpstream)

	resp, err := http.Get(api.URL + "/routes")
	require.NoError(t, err)
	defer resp.Body.Close()

	var routes []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&routes))
	assert.Contains(t, routes, "/mrt")
	assert.Contains(t, routes, "/mrt/summary")
	assert.Contains(t, routes, "/bus/arrivals")
	assert.Contains(t, routes, "/weather")
}

func TestCrowdInvalidLine(t *testing.T) {
	api := newTestServer(t, emptyValueUpstream)

	status, body := getJSON(t, api.URL+"/mrt/crowd?line=XYZ")
	assert.Equal(t, http.StatusOK, status, "failures stay transport-level success")
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "invalid_line", body["error"])
	assert.Equal(t, "XYZ", body["normalized"])
	assert.NotEmpty(t, body["supported"])
}

func TestCrowdDefaultsToNSL(t *testing.T) {
	var gotLine string
	api := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotLine = r.URL.Query().Get("TrainLine")
		emptyValueUpstream(w, r)
	})

	status, body := getJSON(t, api.URL+"/mrt/crowd")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "NSL", gotLine)
}

func TestBusArrivalsRequiresStop(t *testing.T) {
	api := newTestServer(t, emptyValueUpstream)

	status, body := getJSON(t, api.URL+"/bus/arrivals")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "missing_stop", body["error"])
}

func TestMrtAlertsEndToEnd(t *testing.T) {
	api := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[{"Line":"North South Line","Status":3,"Message":"Signal fault"}]}`))
	})

	status, body := getJSON(t, api.URL+"/mrt")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["has_disruption"])

	alerts, ok := body["alerts"].([]any)
	require.True(t, ok)
	require.Len(t, alerts, 1)
	alert := alerts[0].(map[string]any)
	assert.Equal(t, "NSL", alert["line"])
}
