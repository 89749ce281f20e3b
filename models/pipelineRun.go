package models

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/orders_etl/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PipelineRun is the bookkeeping row written after every run.
type PipelineRun struct {
	RunId         string         `gorm:"primaryKey;size:36" json:"run_id"`
	Kind          RunKind        `gorm:"size:20;not null;index:idx_pr_kind_started,priority:1" json:"kind"`
	Trigger       RunTrigger     `gorm:"size:20;not null" json:"trigger"`
	Status        RunStatus      `gorm:"size:20;not null;index" json:"status"`
	FailedStage   *string        `gorm:"size:32" json:"failed_stage"`
	Error         *string        `gorm:"type:text" json:"error"`
	ErrorCode     *string        `gorm:"size:32" json:"error_code"`
	StartedAt     time.Time      `gorm:"not null;index:idx_pr_kind_started,priority:2" json:"started_at"`
	FinishedAt    time.Time      `gorm:"not null" json:"finished_at"`
	DurationMs    int64          `gorm:"not null;default:0" json:"duration_ms"`
	Stats         datatypes.JSON `json:"stats"`
	CorrelationId string         `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (PipelineRun) TableName() string { return TablePipelineRuns }

func CreatePipelineRun(ctx context.Context, db *gorm.DB, run *PipelineRun) error {
	return db.WithContext(ctx).Create(run).Error
}

// ListPipelineRuns returns the most recent runs first. An empty kind lists every kind.
func ListPipelineRuns(ctx context.Context, db *gorm.DB, kind RunKind, limit int) ([]PipelineRun, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	q := db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var runs []PipelineRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// LatestPipelineRun may return utils.ErrorRecordNotFound.
func LatestPipelineRun(ctx context.Context, db *gorm.DB, kind RunKind) (*PipelineRun, error) {
	var run PipelineRun
	err := db.WithContext(ctx).Where("kind = ?", kind).Order("started_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
