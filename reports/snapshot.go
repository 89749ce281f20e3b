package reports

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/transform"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const WorkbookName = "processed.xlsx"

// Snapshot writes the processed tables of a run to Dir: one <table>.csv per
// table and, when XLSX is set, a workbook with one sheet per table.
type Snapshot struct {
	Dir    string
	XLSX   bool
	Logger *logrus.Logger
}

func NewSnapshot(dir string, xlsx bool, logger *logrus.Logger) *Snapshot {
	if logger == nil {
		logger = logrus.New()
	}
	return &Snapshot{Dir: dir, XLSX: xlsx, Logger: logger}
}

type sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Write returns the directory written to.
func (s *Snapshot) Write(ctx context.Context, out *transform.Output) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	sheets := buildSheets(out)
	for _, sh := range sheets {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := writeSheetCSV(filepath.Join(s.Dir, sh.Name+".csv"), sh); err != nil {
			return "", fmt.Errorf("write %s.csv: %w", sh.Name, err)
		}
	}
	if s.XLSX {
		if err := writeWorkbook(filepath.Join(s.Dir, WorkbookName), sheets); err != nil {
			return "", fmt.Errorf("write %s: %w", WorkbookName, err)
		}
	}
	s.Logger.WithFields(logrus.Fields{
		"field":  "Snapshot.Write",
		"dir":    s.Dir,
		"tables": len(sheets),
		"xlsx":   s.XLSX,
	}).Info("processed snapshot written")
	return s.Dir, nil
}

func buildSheets(out *transform.Output) []sheet {
	customers := sheet{Name: models.TableCustomers, Header: []string{
		"customer_id", "customer_name", "email", "registration_date", "country", "city", "customer_segment"}}
	for _, c := range out.Customers {
		customers.Rows = append(customers.Rows, []any{c.CustomerId, c.CustomerName, c.Email, c.RegistrationDate, c.Country, c.City, c.CustomerSegment})
	}

	products := sheet{Name: models.TableProducts, Header: []string{
		"product_id", "product_name", "category", "subcategory", "brand", "unit_price", "cost_price", "profit_margin", "created_date"}}
	for _, p := range out.Products {
		products.Rows = append(products.Rows, []any{p.ProductId, p.ProductName, p.Category, p.Subcategory, p.Brand, p.UnitPrice, p.CostPrice, p.ProfitMargin, p.CreatedDate})
	}

	orders := sheet{Name: models.TableOrders, Header: []string{
		"order_id", "customer_id", "order_date", "ship_date", "shipping_days", "ship_mode", "order_status",
		"discount_amount", "total_amount", "order_month", "order_year", "day_of_week"}}
	for _, o := range out.Orders {
		orders.Rows = append(orders.Rows, []any{o.OrderId, o.CustomerId, o.OrderDate, o.ShipDate, o.ShippingDays, o.ShipMode, o.OrderStatus,
			o.DiscountAmount, o.TotalAmount, o.OrderMonth, o.OrderYear, o.DayOfWeek})
	}

	items := sheet{Name: models.TableOrderItems, Header: []string{
		"item_id", "order_id", "product_id", "quantity", "unit_price", "total_price", "discount_percentage", "discount_amount", "final_price"}}
	for _, it := range out.OrderItems {
		items.Rows = append(items.Rows, []any{it.ItemId, it.OrderId, it.ProductId, it.Quantity, it.UnitPrice, it.TotalPrice,
			it.DiscountPercentage, it.DiscountAmount, it.FinalPrice})
	}

	customerMetrics := sheet{Name: models.TableCustomerMetrics, Header: []string{
		"customer_id", "order_count", "total_spent", "avg_order_value", "max_order_value", "first_order", "last_order", "customer_lifetime_days"}}
	for _, m := range out.CustomerMetrics {
		customerMetrics.Rows = append(customerMetrics.Rows, []any{m.CustomerId, m.OrderCount, m.TotalSpent, m.AvgOrderValue, m.MaxOrderValue,
			m.FirstOrder, m.LastOrder, m.CustomerLifetimeDays})
	}

	productMetrics := sheet{Name: models.TableProductMetrics, Header: []string{
		"product_id", "total_quantity_sold", "total_revenue", "unique_orders"}}
	for _, m := range out.ProductMetrics {
		productMetrics.Rows = append(productMetrics.Rows, []any{m.ProductId, m.TotalQuantitySold, m.TotalRevenue, m.UniqueOrders})
	}

	monthly := sheet{Name: models.TableMonthlySummary, Header: []string{
		"order_month", "total_orders", "total_revenue", "total_customers", "avg_order_value"}}
	for _, m := range out.MonthlySummary {
		monthly.Rows = append(monthly.Rows, []any{m.OrderMonth, m.TotalOrders, m.TotalRevenue, m.TotalCustomers, m.AvgOrderValue})
	}

	return []sheet{customers, products, orders, items, customerMetrics, productMetrics, monthly}
}

func writeSheetCSV(path string, sh sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(sh.Header); err != nil {
		f.Close()
		return err
	}
	record := make([]string, len(sh.Header))
	for _, row := range sh.Rows {
		for i, v := range row {
			record[i] = csvCell(v)
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeWorkbook(path string, sheets []sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return err
		}

		header := make([]any, len(sh.Header))
		for j, h := range sh.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(sh.Name, "A1", &header); err != nil {
			return err
		}
		for r, row := range sh.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			values := make([]any, len(row))
			for j, v := range row {
				values[j] = xlsxCell(v)
			}
			if err := f.SetSheetRow(sh.Name, cell, &values); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

func csvCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format("2006-01-02")
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("2006-01-02")
	case *int:
		if x == nil {
			return ""
		}
		return strconv.Itoa(*x)
	default:
		return fmt.Sprint(v)
	}
}

func xlsxCell(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case time.Time:
		return x.Format("2006-01-02")
	case *time.Time, *int:
		return csvCell(x)
	default:
		return v
	}
}
