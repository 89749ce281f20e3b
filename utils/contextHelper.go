package utils

import (
	"context"

	"github.com/mmdatafocus/orders_etl/appctx"
)

var (
	ContextKeyRunId         = appctx.ContextKeyRunId
	ContextKeyRunKind       = appctx.ContextKeyRunKind
	ContextKeyTrigger       = appctx.ContextKeyTrigger
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetRunIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRunId)
}

func SetRunIdInContext(ctx context.Context, runId string) context.Context {
	return appctx.Set(ctx, ContextKeyRunId, runId)
}

func GetRunKindFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRunKind)
}

func SetRunKindInContext(ctx context.Context, kind string) context.Context {
	return appctx.Set(ctx, ContextKeyRunKind, kind)
}

func GetTriggerFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyTrigger)
}

func SetTriggerInContext(ctx context.Context, trigger string) context.Context {
	return appctx.Set(ctx, ContextKeyTrigger, trigger)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// RunFields returns the run id, kind and trigger carried by ctx as log fields.
func RunFields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	if v, ok := GetRunIdFromContext(ctx); ok {
		fields["run_id"] = v
	}
	if v, ok := GetRunKindFromContext(ctx); ok {
		fields["kind"] = v
	}
	if v, ok := GetTriggerFromContext(ctx); ok {
		fields["trigger"] = v
	}
	return fields
}
