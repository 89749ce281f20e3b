package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTableNamesMatchDashboardContract(t *testing.T) {
	cases := []struct {
		model interface{ TableName() string }
		want  string
	}{
		{Customer{}, "customers"},
		{Product{}, "products"},
		{Order{}, "orders"},
		{OrderItem{}, "order_items"},
		{CustomerMetric{}, "customer_metrics"},
		{ProductMetric{}, "product_metrics"},
		{MonthlySummary{}, "monthly_summary"},
		{DailySalesSummary{}, "sales_summary"},
		{PipelineRun{}, "pipeline_runs"},
	}
	for _, tc := range cases {
		if got := tc.model.TableName(); got != tc.want {
			t.Fatalf("TableName()=%q want %q", got, tc.want)
		}
	}
}

func TestTableDependenciesFollowRawOrder(t *testing.T) {
	pos := map[string]int{}
	for i, name := range RawTables {
		pos[name] = i
	}
	for _, name := range RawTables {
		for _, dep := range TableDependencies[name] {
			if pos[dep] >= pos[name] {
				t.Fatalf("%s depends on %s which is not loaded earlier", name, dep)
			}
		}
	}
	for _, name := range DerivedTables {
		if len(TableDependencies[name]) != len(RawTables) {
			t.Fatalf("%s must depend on every raw table, got %v", name, TableDependencies[name])
		}
	}
}

func TestOrderDateOnlyTruncatesTimestamps(t *testing.T) {
	ship := time.Date(2024, 3, 5, 17, 45, 0, 0, time.UTC)
	o := Order{
		OrderDate:   time.Date(2024, 3, 1, 9, 30, 12, 0, time.UTC),
		ShipDate:    &ship,
		TotalAmount: decimal.NewFromInt(10),
	}
	got := o.DateOnly()
	if !got.OrderDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("order_date not truncated: %v", got.OrderDate)
	}
	if !got.ShipDate.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ship_date not truncated: %v", got.ShipDate)
	}
	if ship.Hour() != 17 {
		t.Fatalf("DateOnly mutated the caller's ship date")
	}
}

func TestProductDateOnlyKeepsNullCreatedDate(t *testing.T) {
	p := Product{ProductId: 1}
	if got := p.DateOnly(); got.CreatedDate != nil {
		t.Fatalf("expected nil created_date, got %v", got.CreatedDate)
	}
}

func TestParseRunKind(t *testing.T) {
	cases := map[string]RunKind{"full": RunKindFull, "FULL": RunKindFull, " incremental ": RunKindIncremental, "inc": RunKindIncremental}
	for in, want := range cases {
		got, err := ParseRunKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseRunKind(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseRunKind("weekly"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
