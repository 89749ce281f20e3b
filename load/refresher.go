package load

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const dailyOrderTotalsSQL = `
SELECT
	o.order_date AS summary_date,
	COUNT(DISTINCT o.order_id) AS total_orders,
	COALESCE(SUM(o.total_amount), 0) AS total_revenue,
	COUNT(DISTINCT o.customer_id) AS total_customers
FROM orders o
GROUP BY o.order_date
ORDER BY o.order_date`

const dailyCategoryRevenueSQL = `
SELECT
	o.order_date AS summary_date,
	p.category AS category,
	COALESCE(SUM(oi.total_price), 0) AS revenue
FROM order_items oi
JOIN orders o ON o.order_id = oi.order_id
JOIN products p ON p.product_id = oi.product_id
GROUP BY o.order_date, p.category`

type dailyOrderTotals struct {
	SummaryDate    time.Time
	TotalOrders    int64
	TotalRevenue   decimal.Decimal
	TotalCustomers int64
}

type dailyCategoryRevenue struct {
	SummaryDate time.Time
	Category    string
	Revenue     decimal.Decimal
}

// Refresher rebuilds sales_summary from the persisted orders, order_items and products.
type Refresher struct {
	Store  Store
	Logger *logrus.Logger
}

func NewRefresher(store Store, logger *logrus.Logger) *Refresher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Refresher{Store: store, Logger: logger}
}

// RefreshDailySummary recomputes every date and replaces the table in one
// transaction, so re-runs never duplicate a date. It returns the number of rows written.
// Failures are *utils.RefreshFailure.
func (r *Refresher) RefreshDailySummary(ctx context.Context) (int, error) {
	var written int
	err := r.Store.Transaction(ctx, func(tx Store) error {
		var totals []dailyOrderTotals
		if err := tx.Query(ctx, &totals, dailyOrderTotalsSQL); err != nil {
			return err
		}
		var revenue []dailyCategoryRevenue
		if err := tx.Query(ctx, &revenue, dailyCategoryRevenueSQL); err != nil {
			return err
		}
		rows := BuildDailySummary(totals, revenue)
		written = len(rows)
		return tx.BulkInsert(ctx, models.TableSalesSummary, rows, LoadModeReplace)
	})
	if err != nil {
		return 0, &utils.RefreshFailure{Err: err}
	}

	r.Logger.WithFields(logrus.Fields{
		"field": "RefreshDailySummary",
		"table": models.TableSalesSummary,
		"rows":  written,
	}).WithFields(logrus.Fields(utils.RunFields(ctx))).Info("daily summary refreshed")
	return written, nil
}

// BuildDailySummary merges per-date totals with per-(date, category) revenue.
// top_category is the highest-revenue category of the date; ties go to the
// alphabetically first name. Dates without items get a null top_category.
func BuildDailySummary(totals []dailyOrderTotals, revenue []dailyCategoryRevenue) []models.DailySalesSummary {
	type best struct {
		category string
		revenue  decimal.Decimal
	}
	top := map[string]best{}
	for _, cr := range revenue {
		key := dateKey(cr.SummaryDate)
		cur, ok := top[key]
		if !ok || cr.Revenue.GreaterThan(cur.revenue) || (cr.Revenue.Equal(cur.revenue) && cr.Category < cur.category) {
			top[key] = best{category: cr.Category, revenue: cr.Revenue}
		}
	}

	rows := make([]models.DailySalesSummary, 0, len(totals))
	for _, t := range totals {
		if t.TotalOrders == 0 {
			continue
		}
		revenueTotal := utils.Round2(t.TotalRevenue)
		row := models.DailySalesSummary{
			SummaryDate:    utils.DateOnly(t.SummaryDate),
			TotalOrders:    t.TotalOrders,
			TotalRevenue:   revenueTotal,
			TotalCustomers: t.TotalCustomers,
			AvgOrderValue:  utils.Round2(t.TotalRevenue.Div(decimal.NewFromInt(t.TotalOrders))),
		}
		if b, ok := top[dateKey(t.SummaryDate)]; ok {
			category := b.category
			row.TopCategory = &category
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SummaryDate.Before(rows[j].SummaryDate) })
	return rows
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
