package extract

import (
	"context"
	"fmt"
	"strings"
)

// Entity kinds, which double as the raw file/object base names.
const (
	KindCustomers  = "customers"
	KindProducts   = "products"
	KindOrders     = "orders"
	KindOrderItems = "order_items"
)

var Kinds = []string{KindCustomers, KindProducts, KindOrders, KindOrderItems}

// RawTable is one raw entity collection: a header and string cells, as read from the source.
// Consumers must treat it as read-only.
type RawTable struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header (case-insensitive, trimmed), or -1.
func (t RawTable) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

func (t RawTable) HasColumns(names ...string) (missing []string) {
	for _, n := range names {
		if t.Column(n) < 0 {
			missing = append(missing, n)
		}
	}
	return missing
}

// Cell returns row[col] or "" when the row is short or col < 0.
func (t RawTable) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func (t RawTable) Len() int { return len(t.Rows) }

// RawData holds the four collections of one extraction.
type RawData struct {
	Customers  RawTable
	Products   RawTable
	Orders     RawTable
	OrderItems RawTable
}

func (d *RawData) Table(kind string) (RawTable, error) {
	switch kind {
	case KindCustomers:
		return d.Customers, nil
	case KindProducts:
		return d.Products, nil
	case KindOrders:
		return d.Orders, nil
	case KindOrderItems:
		return d.OrderItems, nil
	}
	return RawTable{}, fmt.Errorf("unknown entity kind %q", kind)
}

func (d *RawData) set(kind string, t RawTable) error {
	t.Name = kind
	switch kind {
	case KindCustomers:
		d.Customers = t
	case KindProducts:
		d.Products = t
	case KindOrders:
		d.Orders = t
	case KindOrderItems:
		d.OrderItems = t
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return nil
}

// RowCounts is used for run stats and logs.
func (d *RawData) RowCounts() map[string]int {
	return map[string]int{
		KindCustomers:  d.Customers.Len(),
		KindProducts:   d.Products.Len(),
		KindOrders:     d.Orders.Len(),
		KindOrderItems: d.OrderItems.Len(),
	}
}

// Source supplies the raw entity collections for a full run.
type Source interface {
	Extract(ctx context.Context) (*RawData, error)
}
