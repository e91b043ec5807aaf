// Package httpapi exposes brief generation and retrieval over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/research"
	"github.com/joelkehle/intelbrief/internal/store"
)

const (
	defaultMaxBodyBytes = 64 << 10
	healthCheckTimeout  = 3 * time.Second
)

// Generator runs the research pipeline for one company.
type Generator interface {
	Run(ctx context.Context, in research.CompanyInput) (research.Result, error)
}

type HealthCheck func(ctx context.Context) error

type Options struct {
	Generator    Generator
	Store        store.Store
	Log          *zap.Logger
	HealthChecks map[string]HealthCheck
	Version      string
	Debug        bool
	MaxBodyBytes int64
}

type server struct {
	gen          Generator
	store        store.Store
	checks       map[string]HealthCheck
	version      string
	maxBodyBytes int64
}

func NewRouter(opts Options) *gin.Engine {
	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &server{
		gen:          opts.Generator,
		store:        opts.Store,
		checks:       opts.HealthChecks,
		version:      opts.Version,
		maxBodyBytes: opts.MaxBodyBytes,
	}

	router := gin.New()
	router.Use(requestIDMiddleware(opts.Log), accessLogMiddleware(), recoveryMiddleware())
	router.NoRoute(func(c *gin.Context) { writeError(c, CodeNotFound, "route not found") })

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/briefs", s.handleCreateBrief)
	v1.GET("/briefs/:slug", s.handleGetBrief)
	return router
}

type locationRequest struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type createBriefRequest struct {
	Name         string          `json:"name"`
	Website      string          `json:"website"`
	Industry     string          `json:"industry"`
	Headquarters locationRequest `json:"headquarters"`
	SizeHint     string          `json:"size_hint"`
}

type briefResponse struct {
	Slug  string         `json:"slug"`
	Brief research.Brief `json:"brief"`
}

func (s *server) handleCreateBrief(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	var req createBriefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, CodeBadRequest, "request body must be a JSON object with name and website")
		return
	}
	log := loggerFrom(c).With(zap.String("company", req.Name))

	res, err := s.gen.Run(c.Request.Context(), research.CompanyInput{
		Name:         req.Name,
		Website:      req.Website,
		Industry:     req.Industry,
		Headquarters: research.Location{City: req.Headquarters.City, Country: req.Headquarters.Country},
		SizeHint:     req.SizeHint,
	})
	if err != nil {
		log.Warn("brief generation failed",
			zap.String("code", research.ErrorCode(err)),
			zap.String("stage", research.StageNameFromError(err)),
			zap.Error(err))
		writePipelineError(c, err)
		return
	}

	// A canceled request still persists a finished brief.
	slug, err := s.store.Save(context.WithoutCancel(c.Request.Context()), res.Brief)
	if err != nil {
		writeStoreError(c, err, msgStoreFailed)
		return
	}
	log.Info("brief stored", zap.String("slug", slug), zap.Int("competitors", len(res.Brief.Competitors)))
	c.Header("Location", "/v1/briefs/"+slug)
	c.JSON(http.StatusCreated, briefResponse{Slug: slug, Brief: res.Brief})
}

func (s *server) handleGetBrief(c *gin.Context) {
	slug := c.Param("slug")
	fresh, _ := strconv.ParseBool(c.Query("fresh"))
	brief, err := s.store.GetBySlug(c.Request.Context(), slug, fresh)
	if err != nil {
		writeStoreError(c, err, msgLoadFailed)
		return
	}
	c.JSON(http.StatusOK, briefResponse{Slug: slug, Brief: brief})
}

func (s *server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			loggerFrom(c).Warn("health check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "version": s.version, "checks": results})
}
