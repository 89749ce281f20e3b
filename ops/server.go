package ops

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/mmdatafocus/orders_etl/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Enqueuer accepts manual run requests. *workflow.Scheduler implements it.
type Enqueuer interface {
	Enqueue(kind models.RunKind) error
}

// StatusReader returns the last cached report per kind. *workflow.StatusCache implements it.
type StatusReader interface {
	Last(ctx context.Context, kind models.RunKind) (*workflow.RunReport, bool, error)
}

// RunHistory reads pipeline_runs.
type RunHistory interface {
	List(ctx context.Context, kind models.RunKind, limit int) ([]models.PipelineRun, error)
	Latest(ctx context.Context, kind models.RunKind) (*models.PipelineRun, error)
}

type DBHistory struct {
	DB *gorm.DB
}

func (h DBHistory) List(ctx context.Context, kind models.RunKind, limit int) ([]models.PipelineRun, error) {
	return models.ListPipelineRuns(ctx, h.DB, kind, limit)
}

func (h DBHistory) Latest(ctx context.Context, kind models.RunKind) (*models.PipelineRun, error) {
	return models.LatestPipelineRun(ctx, h.DB, kind)
}

// Server is the ops HTTP surface. It never runs the pipeline itself; POST only enqueues.
type Server struct {
	Queue    Enqueuer
	Status   StatusReader
	History  RunHistory
	Triggers func() []workflow.TriggerStatus
	Limiter  *RateLimiter
	Logger   *logrus.Logger
}

func (s *Server) Router() *gin.Engine {
	if s.Logger == nil {
		s.Logger = config.GetLogger()
	}

	r := gin.New()
	r.Use(correlationId())

	corsConfig := cors.DefaultConfig()
	if origins := splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "x-correlation-id")
	r.Use(cors.New(corsConfig))
	r.Use(errorLogger(s.Logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	api := r.Group("/api/etl")
	api.GET("/status", s.statusHandler)
	api.GET("/runs", s.runsHandler)
	if s.Limiter != nil {
		api.POST("/runs/:kind", s.Limiter.Middleware, s.enqueueHandler)
	} else {
		api.POST("/runs/:kind", s.enqueueHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

type kindStatus struct {
	Source string              `json:"source"`
	Report *workflow.RunReport `json:"report,omitempty"`
	Run    *models.PipelineRun `json:"run,omitempty"`
}

func (s *Server) statusHandler(c *gin.Context) {
	ctx := c.Request.Context()
	out := gin.H{}
	for _, kind := range []models.RunKind{models.RunKindFull, models.RunKindIncremental} {
		st, err := s.lastRun(ctx, kind)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out[string(kind)] = st
	}
	if s.Triggers != nil {
		out["triggers"] = s.Triggers()
	}
	c.JSON(http.StatusOK, out)
}

// lastRun prefers the redis cache and falls back to the newest pipeline_runs row.
func (s *Server) lastRun(ctx context.Context, kind models.RunKind) (*kindStatus, error) {
	if s.Status != nil {
		report, ok, err := s.Status.Last(ctx, kind)
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"field": "ops",
				"kind":  kind,
			}).Warn("status cache read failed; falling back to database: " + err.Error())
		} else if ok {
			return &kindStatus{Source: "cache", Report: report}, nil
		}
	}
	if s.History == nil {
		return nil, nil
	}
	run, err := s.History.Latest(ctx, kind)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &kindStatus{Source: "database", Run: run}, nil
}

func (s *Server) runsHandler(c *gin.Context) {
	if s.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run history unavailable"})
		return
	}
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	var kind models.RunKind
	if v := strings.TrimSpace(c.Query("kind")); v != "" {
		k, err := models.ParseRunKind(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		kind = k
	}

	runs, err := s.History.List(c.Request.Context(), kind, limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) enqueueHandler(c *gin.Context) {
	kind, err := models.ParseRunKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.Queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler is not running"})
		return
	}
	if err := s.Queue.Enqueue(kind); err != nil {
		if errors.Is(err, workflow.ErrQueueFull) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	s.Logger.WithFields(logrus.Fields{
		"field":          "ops",
		"kind":           kind,
		"correlation_id": cid,
	}).Info("manual run enqueued")
	c.JSON(http.StatusAccepted, gin.H{"kind": kind, "status": "queued"})
}

func correlationId() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}

// errorLogger logs only requests that recorded errors.
func errorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 {
			logger.WithFields(logrus.Fields{
				"field":  "ops",
				"path":   c.Request.URL.Path,
				"status": c.Writer.Status(),
			}).Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
