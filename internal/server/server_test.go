package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/dataset"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/fixtures"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/model"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/predict"
	"github.com/CZhakshylykova/SDS-CP030-edu-spend/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, csv string) *server.Server {
	t.Helper()
	ds, err := dataset.Parse(strings.NewReader(csv), "data_full.csv", ',')
	require.NoError(t, err)
	b, err := model.Decode(strings.NewReader(fixtures.BundleJSON), model.FormatJSON)
	require.NoError(t, err)
	p, err := predict.New(ds, b, predict.StrategyZero)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := server.New(p, server.Options{GinMode: gin.TestMode}, logger)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *server.Server, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestNewRejectsUnknownGinMode(t *testing.T) {
	ds, err := dataset.Parse(strings.NewReader(fixtures.CSV), "data_full.csv", ',')
	require.NoError(t, err)
	b, err := model.Decode(strings.NewReader(fixtures.BundleJSON), model.FormatJSON)
	require.NoError(t, err)
	p, err := predict.New(ds, b, predict.StrategyZero)
	require.NoError(t, err)

	require.NotPanics(t, func() {
		_, err = server.New(p, server.Options{GinMode: "production"}, nil)
	})
	require.ErrorContains(t, err, "unknown gin mode")
}

func TestHealthAndRequestID(t *testing.T) {
	s := newServer(t, fixtures.CSV)
	rec := do(t, s, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestOptions(t *testing.T) {
	s := newServer(t, fixtures.CSV)
	rec := do(t, s, http.MethodGet, "/api/v1/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got server.OptionsResponse
	decode(t, rec, &got)
	require.Equal(t, []string{"Germany", "USA", "Japan"}, got.Countries)
	require.Equal(t, []string{"Master", "Bachelor"}, got.Levels)
	require.Equal(t, 1, got.MinDuration)
	require.Equal(t, 6, got.MaxDuration)
	require.Equal(t, 4, got.DefaultDuration)
	require.Equal(t, "KMeans_Cluster", got.DefaultCluster)
	require.Equal(t, "zero", got.Strategy)
}

func TestPredictGetAndPost(t *testing.T) {
	s := newServer(t, fixtures.CSV)

	type resp struct {
		Prediction struct {
			TCA       float64        `json:"tca"`
			Formatted string         `json:"formatted"`
			Query     map[string]any `json:"query"`
			Clamped   bool           `json:"duration_clamped"`
		} `json:"prediction"`
		Headline string `json:"headline"`
	}

	rec := do(t, s, http.MethodGet, "/api/v1/predict?country=Germany&level=Bachelor&duration=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var g resp
	decode(t, rec, &g)
	require.InDelta(t, 23000, g.Prediction.TCA, 1e-9)
	require.Equal(t, "Predicted Total Cost of Attendance: $23,000.00", g.Headline)
	require.Equal(t, "Munich", g.Prediction.Query["City"])

	rec = do(t, s, http.MethodPost, "/api/v1/predict", bytes.NewBufferString(`{"country":"Germany","level":"Master","duration_years":12}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p resp
	decode(t, rec, &p)
	require.InDelta(t, 28000, p.Prediction.TCA, 1e-9)
	require.True(t, p.Prediction.Clamped)
	require.EqualValues(t, 6, p.Prediction.Query["Duration_Years"])
}

func TestPredictErrors(t *testing.T) {
	csv := fixtures.CSV + "France,Paris,Sorbonne,Physics,Master,2,200,80,1300,99,900,21000,1,-1\n"
	s := newServer(t, csv)

	cases := []struct {
		name, target string
	}{
		{"unknown selection", "/api/v1/predict?country=Narnia&level=Master"},
		{"unknown category", "/api/v1/predict?country=France&level=Master"},
		{"bad duration", "/api/v1/predict?country=Germany&level=Master&duration=abc"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, c.target, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			decode(t, rec, &body)
			require.NotEmpty(t, body["error"])
		})
	}

	rec := do(t, s, http.MethodPost, "/api/v1/predict", bytes.NewBufferString(`{not json`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAffordability(t *testing.T) {
	s := newServer(t, fixtures.CSV)
	rec := do(t, s, http.MethodGet, "/api/v1/affordability", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Countries []struct {
			Country string  `json:"country"`
			Mean    float64 `json:"mean"`
		} `json:"countries"`
		Figure struct {
			Data []struct {
				Type         string   `json:"type"`
				Locations    []string `json:"locations"`
				LocationMode string   `json:"locationmode"`
				ColorScale   string   `json:"colorscale"`
			} `json:"data"`
		} `json:"figure"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Countries, 2)
	require.Equal(t, "choropleth", body.Figure.Data[0].Type)
	require.Equal(t, "country names", body.Figure.Data[0].LocationMode)
	require.Equal(t, "Viridis", body.Figure.Data[0].ColorScale)

	rec = do(t, s, http.MethodGet, "/api/v1/affordability.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestClusters(t *testing.T) {
	s := newServer(t, fixtures.CSV)

	var k, h struct {
		By      string   `json:"by"`
		Columns []string `json:"columns"`
		Groups  []struct {
			Label string `json:"label"`
			Size  int    `json:"size"`
		} `json:"groups"`
	}
	rec := do(t, s, http.MethodGet, "/api/v1/clusters", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &k)
	require.Equal(t, "KMeans_Cluster", k.By)
	require.Len(t, k.Groups, 3)

	rec = do(t, s, http.MethodGet, "/api/v1/clusters?by=HDBSCAN_Cluster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &h)
	require.Equal(t, "-1", h.Groups[0].Label)
	require.Equal(t, k.Columns, h.Columns)

	rec = do(t, s, http.MethodGet, "/api/v1/clusters?by=Country", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/clusters.png?by=HDBSCAN_Cluster&column=Rent_USD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = do(t, s, http.MethodGet, "/api/v1/clusters.png?column=Country", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/clusters.xlsx?by=KMeans_Cluster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Disposition"), "clusters_KMeans_Cluster.xlsx")
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestDashboardPage(t *testing.T) {
	s := newServer(t, fixtures.CSV)

	rec := do(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	for _, want := range []string{
		"International Education Budget Planner",
		"Input Parameters",
		"Affordability Map",
		"Cluster Explorer",
		"How to Use",
		// defaults: first country, first level, duration 4
		"Predicted Total Cost of Attendance: $28,000.00",
		`value="4"`,
		"choropleth",
	} {
		require.Contains(t, page, want)
	}

	rec = do(t, s, http.MethodGet, "/?country=Germany&level=Bachelor&duration=3&cluster=HDBSCAN_Cluster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = rec.Body.String()
	require.Contains(t, page, "$23,000.00")
	require.Contains(t, page, `<option value="HDBSCAN_Cluster" selected>`)
}

func TestZeroDurationMeansDefaultEverywhere(t *testing.T) {
	ds, err := dataset.Parse(strings.NewReader(fixtures.CSV), "data_full.csv", ',')
	require.NoError(t, err)
	b, err := model.Decode(strings.NewReader(fixtures.BundleJSON), model.FormatJSON)
	require.NoError(t, err)
	p, err := predict.New(ds, b, predict.StrategyZero)
	require.NoError(t, err)
	s, err := server.New(p, server.Options{DefaultDuration: 5, GinMode: gin.TestMode}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/?country=Germany&level=Master&duration=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="5"`)

	var body struct {
		Prediction struct {
			Query   map[string]any `json:"query"`
			Clamped bool           `json:"duration_clamped"`
		} `json:"prediction"`
	}
	rec = do(t, s, http.MethodGet, "/api/v1/predict?country=Germany&level=Master&duration=0", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &body)
	require.EqualValues(t, 5, body.Prediction.Query["Duration_Years"])
	require.False(t, body.Prediction.Clamped)

	rec = do(t, s, http.MethodPost, "/api/v1/predict", bytes.NewBufferString(`{"country":"Germany","level":"Master","duration_years":0}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &body)
	require.EqualValues(t, 5, body.Prediction.Query["Duration_Years"])

	rec = do(t, s, http.MethodGet, "/?country=Germany&level=Master&duration=-3", nil)
	require.Contains(t, rec.Body.String(), `value="1"`)
}

func TestDashboardShowsWidgetErrors(t *testing.T) {
	s := newServer(t, fixtures.CSV)
	rec := do(t, s, http.MethodGet, "/?country=Narnia&cluster=Country", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := rec.Body.String()
	require.Contains(t, page, "unknown selection")
	require.Contains(t, page, "unsupported cluster column")
	// the map still renders
	require.Contains(t, page, "choropleth")
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newServer(t, fixtures.CSV)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0", time.Second) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
