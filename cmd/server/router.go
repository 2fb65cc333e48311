package main

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZanzyTHEbar/tender-integrity/internal/database"
	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/jobs"
	"github.com/ZanzyTHEbar/tender-integrity/internal/middleware"
	"github.com/ZanzyTHEbar/tender-integrity/internal/monitoring"
	"github.com/ZanzyTHEbar/tender-integrity/internal/pipeline"
	"github.com/ZanzyTHEbar/tender-integrity/internal/security"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

const version = "1.0.0"

// app holds the collaborators the HTTP handlers need
type app struct {
	service        *pipeline.Service
	runner         *jobs.Runner
	metrics        *monitoring.Metrics
	logger         *monitoring.Logger
	db             *database.DB
	allowedOrigins []string
	security       security.Config
	compression    *middleware.Compression
	started        time.Time
}

func newRouter(a *app) *gin.Engine {
	r := gin.New()
	if a.compression == nil {
		a.compression = middleware.NewCompression(middleware.DefaultCompressionConfig())
	}

	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(a.compression.Handler())
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     a.allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	guard := security.NewMiddleware(a.security)
	r.Use(guard.SecurityHeaders)

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})))

	v1 := r.Group("/v1", guard.RequestGuards()...)
	v1.POST("/evaluations", a.evaluate)
	v1.POST("/jobs", a.submitJob)
	v1.GET("/jobs/:id", a.jobStatus)
	v1.GET("/tenders/:id/runs/latest", a.latestRun)

	return r
}

func (a *app) health(c *gin.Context) {
	resp := gin.H{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"version":     version,
		"uptime":      time.Since(a.started).Round(time.Second).String(),
		"compression": a.compression.Stats(),
	}
	if a.db != nil {
		if err := a.db.PingContext(c.Request.Context()); err != nil {
			resp["status"] = "degraded"
			resp["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = a.db.GetPoolStats()
	}
	c.JSON(http.StatusOK, resp)
}

// evaluate runs the pipeline synchronously for one tender snapshot
func (a *app) evaluate(c *gin.Context) {
	var req types.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewMalformedInputError("request body", err))
		return
	}

	res, err := a.service.Process(c.Request.Context(), req.Tender)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *app) submitJob(c *gin.Context) {
	var req types.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewMalformedInputError("request body", err))
		return
	}

	id, err := a.runner.Submit(req.Tender)
	if stderrors.Is(err, jobs.ErrQueueFull) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Location", "/v1/jobs/"+id)
	c.JSON(http.StatusAccepted, gin.H{
		"success":   true,
		"job_id":    id,
		"tender_id": req.Tender.ID,
		"status":    jobs.StatusQueued,
	})
}

func (a *app) jobStatus(c *gin.Context) {
	id := c.Param("id")
	job, ok := a.runner.Status(id)
	if !ok {
		c.Error(errors.NewNotFoundError("job", id))
		return
	}
	c.JSON(http.StatusOK, job)
}

func (a *app) latestRun(c *gin.Context) {
	tenderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || tenderID <= 0 {
		c.Error(errors.NewValidationError("tender id must be a positive integer",
			map[string]string{"id": c.Param("id")}))
		return
	}

	run, err := a.service.LatestRun(c.Request.Context(), tenderID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, run)
}
