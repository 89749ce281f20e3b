package utils

import (
	"context"
	"reflect"
	"testing"
)

func TestRunFields(t *testing.T) {
	if got := RunFields(context.Background()); len(got) != 0 {
		t.Fatalf("expected no fields, got %v", got)
	}

	ctx := SetRunIdInContext(context.Background(), "run-1")
	ctx = SetRunKindInContext(ctx, "full")
	ctx = SetTriggerInContext(ctx, "schedule")
	want := map[string]any{"run_id": "run-1", "kind": "full", "trigger": "schedule"}
	if got := RunFields(ctx); !reflect.DeepEqual(got, want) {
		t.Fatalf("RunFields = %v, want %v", got, want)
	}
}
