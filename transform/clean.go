package transform

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/utils"
)

// Rejection reasons recorded in CleanStats.Reasons.
const (
	ReasonInvalidId      = "invalid_id"
	ReasonDuplicateId    = "duplicate_id"
	ReasonDuplicateEmail = "duplicate_email"
	ReasonInvalidEmail   = "invalid_email"
	ReasonInvalidDate    = "invalid_date"
	ReasonInvalidNumber  = "invalid_number"
	ReasonNonPositive    = "non_positive"
	ReasonNegative       = "negative"
	ReasonOutOfRange     = "out_of_range"
	ReasonNotInteger     = "not_integer"
	NoteNegativeShipping = "negative_shipping_days"
	maxRowErrorSamples   = 10
)

// requiredColumns per entity kind. A raw table missing any of these is unusable.
var requiredColumns = map[string][]string{
	extract.KindCustomers:  {"customer_id", "email", "registration_date"},
	extract.KindProducts:   {"product_id", "unit_price", "cost_price"},
	extract.KindOrders:     {"order_id", "customer_id", "order_date", "total_amount"},
	extract.KindOrderItems: {"item_id", "order_id", "product_id", "quantity", "unit_price"},
}

// CleanStats counts what a cleaner did with its input.
// Reasons holds per-rule rejection counts; NoteNegativeShipping is informational only
// and its rows are kept.
type CleanStats struct {
	Kind    string                      `json:"kind"`
	Input   int                         `json:"input"`
	Kept    int                         `json:"kept"`
	Dropped int                         `json:"dropped"`
	Reasons map[string]int              `json:"reasons,omitempty"`
	Samples []*utils.RowValidationError `json:"-"`
}

func newCleanStats(kind string, input int) CleanStats {
	return CleanStats{Kind: kind, Input: input, Reasons: map[string]int{}}
}

func (s *CleanStats) reject(err *utils.RowValidationError) {
	s.Dropped++
	s.Reasons[err.Reason]++
	if len(s.Samples) < maxRowErrorSamples {
		s.Samples = append(s.Samples, err)
	}
}

func (s *CleanStats) note(reason string) {
	s.Reasons[reason]++
}

// Clean dispatches to the cleaner for kind and returns its typed slice as any.
func Clean(kind string, table extract.RawTable) (any, CleanStats, error) {
	switch kind {
	case extract.KindCustomers:
		return CleanCustomers(table)
	case extract.KindProducts:
		return CleanProducts(table)
	case extract.KindOrders:
		return CleanOrders(table)
	case extract.KindOrderItems:
		return CleanOrderItems(table)
	}
	return nil, CleanStats{}, utils.NewDataIntegrityError(kind, "unknown entity kind")
}

// checkColumns fails with a DataIntegrityError when required columns are absent.
// A completely empty table (no header, no rows) is an empty collection, not an error.
func checkColumns(kind string, table extract.RawTable) error {
	if len(table.Header) == 0 && len(table.Rows) == 0 {
		return nil
	}
	if missing := table.HasColumns(requiredColumns[kind]...); len(missing) > 0 {
		return utils.NewDataIntegrityError(kind, fmt.Sprintf("missing required columns %v", missing))
	}
	return nil
}

// rowReader reads named cells of one raw row.
type rowReader struct {
	table extract.RawTable
	cols  map[string]int
	kind  string
}

func newRowReader(kind string, table extract.RawTable, names ...string) rowReader {
	cols := make(map[string]int, len(names))
	for _, n := range names {
		cols[n] = table.Column(n)
	}
	return rowReader{table: table, cols: cols, kind: kind}
}

func (r rowReader) raw(row []string, name string) string {
	return r.table.Cell(row, r.cols[name])
}

// text returns the trimmed cell, or "" for null markers.
func (r rowReader) text(row []string, name string) string {
	v := r.raw(row, name)
	if utils.IsEmptyValue(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

func (r rowReader) rowError(index int, field, reason string) *utils.RowValidationError {
	return &utils.RowValidationError{Entity: r.kind, Row: index + 1, Field: field, Reason: reason}
}

func (r rowReader) id(row []string, index int, name string) (int64, *utils.RowValidationError) {
	n, err := utils.ParseInt64(r.raw(row, name))
	if err != nil {
		return 0, r.rowError(index, name, ReasonInvalidId)
	}
	return n, nil
}
