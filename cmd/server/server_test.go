package main

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/tender-integrity/internal/analysis"
	"github.com/ZanzyTHEbar/tender-integrity/internal/database"
	"github.com/ZanzyTHEbar/tender-integrity/internal/fraud"
	"github.com/ZanzyTHEbar/tender-integrity/internal/jobs"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/pipeline"
)

const tenderBody = `{
  "tender": {
    "id": 21,
    "title": "Road maintenance",
    "estimated_budget": "1000",
    "requirements": [{"id": 1, "title": "Asphalt grade", "requirement_type": "technical", "is_mandatory": true}],
    "participants": [
      {"id": 1, "company_name": "Alpha", "trust_score": 80, "proposed_price": "880.10",
       "delivery_time_days": 25, "warranty_months": 24,
       "documents": [{"document_type": "proposal"}, {"document_type": "financial"}, {"document_type": "technical"}]},
      {"id": 2, "company_name": "Beta", "trust_score": 55, "proposed_price": "910.30",
       "delivery_time_days": 45, "warranty_months": 12,
       "documents": [{"document_type": "proposal"}]},
      {"id": 3, "company_name": "Gamma", "proposed_price": "520.70",
       "ip_address": "10.0.0.4",
       "documents": []}
    ]
  }
}`

type testServer struct {
	router *gin.Engine
	runner *jobs.Runner
}

func setupRouter(t testing.TB, withDB bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := monitoring.NewLoggerWithWriter(&buf, monitoring.ParseLevel("error"))
	metrics, err := monitoring.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithMetrics(metrics)}
	var db *database.DB
	if withDB {
		db, err = database.NewDB(filepath.Join(t.TempDir(), "audit.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		opts = append(opts, pipeline.WithStore(database.NewRepository(db)))
	}

	service := pipeline.NewService(
		fraud.NewAnalyzer(fraud.DefaultThresholds(), logger, fraud.WithMetrics(metrics)),
		analysis.NewEngine(nil, logger),
		opts...,
	)
	runner := jobs.NewRunner(service, jobs.Config{Workers: 1, MaxAttempts: 1, Timeout: time.Second}, logger, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	runner.Start(ctx)
	t.Cleanup(func() {
		cancel()
		runner.Wait()
	})

	return &testServer{
		router: newRouter(&app{
			service:        service,
			runner:         runner,
			metrics:        metrics,
			logger:         logger,
			db:             db,
			allowedOrigins: []string{"http://localhost:3000"},
			started:        time.Now(),
		}),
		runner: runner,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := setupRouter(t, true)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{"GET /health returns OK status", "GET", http.StatusOK},
		{"POST /health not routed", "POST", http.StatusNotFound},
		{"DELETE /health not routed", "DELETE", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(tt.method, "/health", "")
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "ok", resp["status"])
				assert.Equal(t, version, resp["version"])
				assert.Contains(t, resp, "database")
				assert.Contains(t, resp, "compression")
			}
		})
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	s := setupRouter(t, true)

	w := s.do("POST", "/v1/evaluations", tenderBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res pipeline.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.RunID)
	require.NotNil(t, res.Evaluation)
	assert.Len(t, res.Evaluation.Results, 3)
	assert.Equal(t, 1, res.Evaluation.Results[0].Rank)
	require.NotNil(t, res.Report)
	assert.NotEmpty(t, res.Report.Detections)

	latest := s.do("GET", "/v1/tenders/21/runs/latest", "")
	require.Equal(t, http.StatusOK, latest.Code, latest.Body.String())
	var run database.Run
	require.NoError(t, json.Unmarshal(latest.Body.Bytes(), &run))
	assert.Equal(t, res.RunID, run.ID)
}

func TestEvaluateEndpointErrors(t *testing.T) {
	s := setupRouter(t, false)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		category       string
	}{
		{"malformed json", `{"tender":`, http.StatusBadRequest, "malformed_input"},
		{"duplicate participant ids",
			`{"tender":{"id":3,"participants":[{"id":1},{"id":1}]}}`,
			http.StatusBadRequest, "validation"},
		{"non-positive tender id",
			`{"tender":{"id":0,"participants":[]}}`,
			http.StatusBadRequest, "validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do("POST", "/v1/evaluations", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tt.category, resp["category"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestJobLifecycle(t *testing.T) {
	s := setupRouter(t, false)

	w := s.do("POST", "/v1/jobs", tenderBody)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var accepted struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.JobID)
	assert.Equal(t, "/v1/jobs/"+accepted.JobID, w.Header().Get("Location"))

	var job jobs.Job
	require.Eventually(t, func() bool {
		st := s.do("GET", "/v1/jobs/"+accepted.JobID, "")
		if st.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(st.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Status == jobs.StatusSucceeded || job.Status == jobs.StatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, jobs.StatusSucceeded, job.Status)
	require.NotNil(t, job.Result)
	assert.True(t, job.Result.Success)
}

func TestJobNotFound(t *testing.T) {
	s := setupRouter(t, false)

	w := s.do("GET", "/v1/jobs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"[NOT_FOUND] job does-not-exist not found","category":"not_found"}`, w.Body.String())
}

func TestLatestRunErrors(t *testing.T) {
	withDB := setupRouter(t, true)
	assert.Equal(t, http.StatusBadRequest, withDB.do("GET", "/v1/tenders/abc/runs/latest", "").Code)
	assert.Equal(t, http.StatusNotFound, withDB.do("GET", "/v1/tenders/404/runs/latest", "").Code)

	withoutDB := setupRouter(t, false)
	assert.Equal(t, http.StatusInternalServerError, withoutDB.do("GET", "/v1/tenders/1/runs/latest", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupRouter(t, false)
	s.do("POST", "/v1/evaluations", tenderBody)

	w := s.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "tender_evaluations_total")
	assert.Contains(t, body, "tender_detector_duration_seconds")
	assert.Contains(t, body, `tender_http_requests_total{method="POST",path="/v1/evaluations",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := setupRouter(t, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/v1/evaluations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEvaluateRequiresJSON(t *testing.T) {
	s := setupRouter(t, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/evaluations", strings.NewReader(tenderBody))
	req.Header.Set("Content-Type", "text/plain")
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"malformed_input"`)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestEvaluateResponseCompressed(t *testing.T) {
	s := setupRouter(t, false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/evaluations", strings.NewReader(largeTenderBody(78, 20)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	var res pipeline.Result
	require.NoError(t, json.NewDecoder(gz).Decode(&res))
	assert.True(t, res.Success)
	require.NotNil(t, res.Evaluation)
	assert.Len(t, res.Evaluation.Results, 20)
}
