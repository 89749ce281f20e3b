package workflow

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/load"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/transform"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("orders-etl")

// RunReport describes one finished run. It is logged, cached, published and recorded.
type RunReport struct {
	RunId         string                          `json:"run_id"`
	Kind          models.RunKind                  `json:"kind"`
	Trigger       models.RunTrigger               `json:"trigger"`
	CorrelationId string                          `json:"correlation_id,omitempty"`
	State         State                           `json:"state"`
	Path          []State                         `json:"path"`
	FailedStage   State                           `json:"failed_stage,omitempty"`
	Error         string                          `json:"error,omitempty"`
	ErrorCode     string                          `json:"error_code,omitempty"`
	StartedAt     time.Time                       `json:"started_at"`
	FinishedAt    time.Time                       `json:"finished_at"`
	DurationMs    int64                           `json:"duration_ms"`
	StageMs       map[State]int64                 `json:"stage_ms"`
	Extracted     map[string]int                  `json:"extracted,omitempty"`
	Loaded        map[string]int                  `json:"loaded,omitempty"`
	Clean         map[string]transform.CleanStats `json:"clean,omitempty"`
	Filter        *transform.FilterStats          `json:"filter,omitempty"`
	SummaryRows   int                             `json:"summary_rows"`
	SnapshotDir   string                          `json:"snapshot_dir,omitempty"`
}

func (r *RunReport) Succeeded() bool { return r.State == StateDone }

// Snapshotter persists the processed tables of a run outside the database.
type Snapshotter interface {
	Write(ctx context.Context, out *transform.Output) (string, error)
}

// Pipeline runs Extract -> Transform -> Load -> Summarize. Stages run strictly in
// sequence and none is retried.
type Pipeline struct {
	Source    extract.Source
	Store     load.Store
	Snapshot  Snapshotter
	Observers []RunObserver
	Logger    *logrus.Logger

	Now      func() time.Time
	NewRunId func() string
}

func NewPipeline(source extract.Source, store load.Store, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Pipeline{
		Source:   source,
		Store:    store,
		Logger:   logger,
		Now:      func() time.Time { return time.Now().UTC() },
		NewRunId: uuid.NewString,
	}
}

func (p *Pipeline) Run(ctx context.Context, kind models.RunKind, trigger models.RunTrigger) (*RunReport, error) {
	switch kind {
	case models.RunKindFull:
		return p.RunFull(ctx, trigger)
	case models.RunKindIncremental:
		return p.RunIncremental(ctx, trigger)
	}
	return nil, errors.New("unknown run kind: " + string(kind))
}

// RunFull executes every stage. On failure the report is in StateFailed and the
// returned error is a *utils.StageError.
func (p *Pipeline) RunFull(ctx context.Context, trigger models.RunTrigger) (*RunReport, error) {
	r := p.begin(ctx, models.RunKindFull, trigger)
	ctx = r.ctx

	var raw *extract.RawData
	err := r.stage(StateExtracting, func(ctx context.Context) error {
		var err error
		raw, err = p.Source.Extract(ctx)
		if err == nil {
			r.report.Extracted = raw.RowCounts()
		}
		return err
	})

	var out *transform.Output
	if err == nil {
		err = r.stage(StateTransforming, func(ctx context.Context) error {
			var err error
			out, err = transform.Run(raw)
			if err == nil {
				r.report.Clean = out.Stats
				r.report.Filter = &out.Filter
				p.logDropped(r.report.RunId, out.Stats)
			}
			return err
		})
	}

	if err == nil && p.Snapshot != nil {
		p.writeSnapshot(ctx, r, out)
	}

	if err == nil {
		err = r.stage(StateLoading, func(ctx context.Context) error {
			if err := load.NewCoordinator(p.Store, p.Logger).LoadAll(ctx, out); err != nil {
				return err
			}
			r.report.Loaded = out.RowCounts()
			return nil
		})
	}

	if err == nil {
		err = r.stage(StateSummarizing, p.summarize(r))
	}
	return p.finish(r, err)
}

// RunIncremental only refreshes the daily summary from what is already persisted.
func (p *Pipeline) RunIncremental(ctx context.Context, trigger models.RunTrigger) (*RunReport, error) {
	r := p.begin(ctx, models.RunKindIncremental, trigger)
	err := r.stage(StateSummarizing, p.summarize(r))
	return p.finish(r, err)
}

func (p *Pipeline) summarize(r *run) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		n, err := load.NewRefresher(p.Store, p.Logger).RefreshDailySummary(ctx)
		r.report.SummaryRows = n
		return err
	}
}

// logDropped warns once per entity that lost rows, with the first rejected rows as samples.
func (p *Pipeline) logDropped(runId string, stats map[string]transform.CleanStats) {
	kinds := make([]string, 0, len(stats))
	for kind := range stats {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		s := stats[kind]
		if s.Dropped == 0 {
			continue
		}
		samples := make([]string, 0, len(s.Samples))
		for _, e := range s.Samples {
			samples = append(samples, e.Error())
		}
		p.Logger.WithFields(logrus.Fields{
			"field":   "Pipeline",
			"run_id":  runId,
			"entity":  kind,
			"input":   s.Input,
			"dropped": s.Dropped,
			"reasons": s.Reasons,
			"samples": samples,
		}).Warn("rows dropped during cleaning")
	}
}

func (p *Pipeline) writeSnapshot(ctx context.Context, r *run, out *transform.Output) {
	dir, err := p.Snapshot.Write(ctx, out)
	if err != nil {
		config.LogError(p.Logger, "workflow", "Pipeline.writeSnapshot", "processed snapshot failed; run continues",
			map[string]any{"run_id": r.report.RunId}, err)
		return
	}
	r.report.SnapshotDir = dir
}

type run struct {
	p       *Pipeline
	ctx     context.Context
	span    trace.Span
	machine *Machine
	report  *RunReport
}

func (p *Pipeline) begin(ctx context.Context, kind models.RunKind, trigger models.RunTrigger) *run {
	report := &RunReport{
		RunId:     p.NewRunId(),
		Kind:      kind,
		Trigger:   trigger,
		StartedAt: p.Now(),
		StageMs:   map[State]int64{},
	}
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		report.CorrelationId = correlationId
	}
	ctx = utils.SetRunIdInContext(ctx, report.RunId)
	ctx = utils.SetRunKindInContext(ctx, string(kind))
	ctx = utils.SetTriggerInContext(ctx, string(trigger))
	ctx, span := tracer.Start(ctx, "etl.run."+string(kind), trace.WithAttributes(
		attribute.String("etl.run_id", report.RunId),
		attribute.String("etl.trigger", string(trigger)),
	))

	p.Logger.WithFields(logrus.Fields{
		"field":   "Pipeline",
		"run_id":  report.RunId,
		"kind":    kind,
		"trigger": trigger,
	}).Info("pipeline run started")

	return &run{p: p, ctx: ctx, span: span, machine: NewMachine(), report: report}
}

// stage moves the machine into st, runs fn and records its duration.
// A failing fn is wrapped in a StageError carrying st.
func (r *run) stage(st State, fn func(ctx context.Context) error) error {
	if err := r.machine.Transition(st); err != nil {
		return &utils.StageError{Stage: string(st), Err: err}
	}
	ctx, span := tracer.Start(r.ctx, "etl.stage."+strings.ToLower(string(st)))
	defer span.End()

	start := r.p.Now()
	err := fn(ctx)
	r.report.StageMs[st] = r.p.Now().Sub(start).Milliseconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &utils.StageError{Stage: string(st), Err: err}
	}

	r.p.Logger.WithFields(logrus.Fields{
		"field":       "Pipeline",
		"run_id":      r.report.RunId,
		"stage":       st,
		"duration_ms": r.report.StageMs[st],
	}).Info("stage completed")
	return nil
}

func (p *Pipeline) finish(r *run, err error) (*RunReport, error) {
	defer r.span.End()
	report := r.report

	if err != nil {
		var stageErr *utils.StageError
		if errors.As(err, &stageErr) {
			report.FailedStage = State(stageErr.Stage)
		} else {
			report.FailedStage = r.machine.State()
		}
		_ = r.machine.Transition(StateFailed)
		report.Error = err.Error()
		report.ErrorCode = utils.ErrorCode(err)
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, report.Error)
		p.logFailure(report, err)
	} else if terr := r.machine.Transition(StateDone); terr != nil {
		err = &utils.StageError{Stage: string(r.machine.State()), Err: terr}
		report.Error = err.Error()
		_ = r.machine.Transition(StateFailed)
	}

	report.State = r.machine.State()
	report.Path = r.machine.History()
	report.FinishedAt = p.Now()
	report.DurationMs = report.FinishedAt.Sub(report.StartedAt).Milliseconds()

	if err == nil {
		p.Logger.WithFields(logrus.Fields{
			"field":        "Pipeline",
			"run_id":       report.RunId,
			"kind":         report.Kind,
			"duration_ms":  report.DurationMs,
			"loaded":       report.Loaded,
			"summary_rows": report.SummaryRows,
		}).Info("pipeline run completed")
	}

	p.notify(r.ctx, report)
	return report, err
}

func (p *Pipeline) logFailure(report *RunReport, err error) {
	fields := logrus.Fields{
		"field":  "Pipeline",
		"run_id": report.RunId,
		"kind":   report.Kind,
		"stage":  report.FailedStage,
		"code":   report.ErrorCode,
	}
	var lf *utils.LoadFailure
	if errors.As(err, &lf) {
		fields["table"] = lf.Table
		fields["rows"] = lf.Rows
	}
	var integrity *utils.DataIntegrityError
	if errors.As(err, &integrity) {
		fields["entity"] = integrity.Entity
	}
	if report.Extracted != nil {
		fields["extracted"] = report.Extracted
	}
	p.Logger.WithFields(fields).Error("pipeline run failed: " + err.Error())
}

func (p *Pipeline) notify(ctx context.Context, report *RunReport) {
	for _, o := range p.Observers {
		if err := o.RunFinished(ctx, report); err != nil {
			config.LogError(p.Logger, "workflow", "Pipeline.notify", "run observer failed",
				map[string]any{"run_id": report.RunId, "observer": o.Name()}, err)
		}
	}
}
