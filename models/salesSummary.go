package models

import (
	"time"

	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
)

// DailySalesSummary is a small, query-friendly aggregate table used by dashboards.
//
// Grain: summary_date (one row per calendar date with orders).
// top_category is the category with the highest item revenue that day.
//
// NOTE: This table is derived data and is rebuilt from orders/order_items on every refresh.
type DailySalesSummary struct {
	SummaryDate    time.Time       `gorm:"primaryKey;type:date" json:"summary_date"`
	TotalOrders    int64           `gorm:"not null" json:"total_orders"`
	TotalRevenue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_revenue"`
	TotalCustomers int64           `gorm:"not null" json:"total_customers"`
	AvgOrderValue  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"avg_order_value"`
	TopCategory    *string         `gorm:"size:100" json:"top_category"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DailySalesSummary) TableName() string { return TableSalesSummary }

func (s DailySalesSummary) DateOnly() DailySalesSummary {
	s.SummaryDate = utils.DateOnly(s.SummaryDate)
	return s
}
