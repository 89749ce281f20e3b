package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunObserver is notified after every run, successful or not. Errors are logged by the pipeline.
type RunObserver interface {
	Name() string
	RunFinished(ctx context.Context, report *RunReport) error
}

// RunRecorder writes one pipeline_runs row per run.
type RunRecorder struct {
	DB *gorm.DB
}

func NewRunRecorder(db *gorm.DB) *RunRecorder { return &RunRecorder{DB: db} }

func (r *RunRecorder) Name() string { return "run_recorder" }

func (r *RunRecorder) RunFinished(ctx context.Context, report *RunReport) error {
	row, err := PipelineRunFromReport(report)
	if err != nil {
		return err
	}
	return models.CreatePipelineRun(ctx, r.DB, row)
}

type runStats struct {
	Path        []State                   `json:"path"`
	StageMs     map[State]int64           `json:"stage_ms"`
	Extracted   map[string]int            `json:"extracted,omitempty"`
	Loaded      map[string]int            `json:"loaded,omitempty"`
	Dropped     map[string]int            `json:"dropped,omitempty"`
	Reasons     map[string]map[string]int `json:"reasons,omitempty"`
	SummaryRows int                       `json:"summary_rows"`
	SnapshotDir string                    `json:"snapshot_dir,omitempty"`
}

func PipelineRunFromReport(report *RunReport) (*models.PipelineRun, error) {
	stats := runStats{
		Path:        report.Path,
		StageMs:     report.StageMs,
		Extracted:   report.Extracted,
		Loaded:      report.Loaded,
		SummaryRows: report.SummaryRows,
		SnapshotDir: report.SnapshotDir,
	}
	if len(report.Clean) > 0 {
		stats.Dropped = map[string]int{}
		stats.Reasons = map[string]map[string]int{}
		for kind, s := range report.Clean {
			stats.Dropped[kind] = s.Dropped
			if len(s.Reasons) > 0 {
				stats.Reasons[kind] = s.Reasons
			}
		}
	}
	b, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}

	row := &models.PipelineRun{
		RunId:         report.RunId,
		Kind:          report.Kind,
		Trigger:       report.Trigger,
		Status:        models.RunStatusDone,
		StartedAt:     report.StartedAt,
		FinishedAt:    report.FinishedAt,
		DurationMs:    report.DurationMs,
		Stats:         datatypes.JSON(b),
		CorrelationId: report.CorrelationId,
	}
	if !report.Succeeded() {
		row.Status = models.RunStatusFailed
		stage := string(report.FailedStage)
		row.FailedStage = &stage
		msg := report.Error
		row.Error = &msg
		if report.ErrorCode != "" {
			code := report.ErrorCode
			row.ErrorCode = &code
		}
	}
	return row, nil
}

const statusKeyPrefix = "etl:last_run:"

// StatusCache keeps the last report per run kind in redis for the ops endpoint.
// With no redis connection it does nothing.
type StatusCache struct {
	TTL time.Duration
}

func NewStatusCache(ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &StatusCache{TTL: ttl}
}

func (c *StatusCache) Name() string { return "status_cache" }

func (c *StatusCache) RunFinished(ctx context.Context, report *RunReport) error {
	return config.SetRedisObject(ctx, statusKeyPrefix+string(report.Kind), report, c.TTL)
}

// Last returns the cached report for kind; ok is false when nothing is cached.
func (c *StatusCache) Last(ctx context.Context, kind models.RunKind) (report *RunReport, ok bool, err error) {
	report = &RunReport{}
	ok, err = config.GetRedisObject(ctx, statusKeyPrefix+string(kind), report)
	if err != nil || !ok {
		return nil, false, err
	}
	return report, true, nil
}

// PublishFunc matches config.PublishJSON.
type PublishFunc func(ctx context.Context, obj interface{}, attributes map[string]string) (string, error)

// RunPublisher announces finished runs on Pub/Sub so downstream consumers can react.
type RunPublisher struct {
	Publish PublishFunc
}

func NewRunPublisher() *RunPublisher {
	return &RunPublisher{Publish: config.PublishJSON}
}

func (p *RunPublisher) Name() string { return "run_publisher" }

func (p *RunPublisher) RunFinished(ctx context.Context, report *RunReport) error {
	_, err := p.Publish(ctx, report, map[string]string{
		"event":   "etl.run.finished",
		"kind":    string(report.Kind),
		"state":   string(report.State),
		"run_id":  report.RunId,
		"trigger": string(report.Trigger),
	})
	return err
}
