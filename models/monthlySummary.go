package models

import "github.com/shopspring/decimal"

// MonthlySummary grain: order_month (YYYY-MM).
type MonthlySummary struct {
	OrderMonth     string          `gorm:"primaryKey;size:7" json:"order_month"`
	TotalOrders    int64           `gorm:"not null" json:"total_orders"`
	TotalRevenue   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_revenue"`
	TotalCustomers int64           `gorm:"not null" json:"total_customers"`
	AvgOrderValue  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"avg_order_value"`
}

func (MonthlySummary) TableName() string { return TableMonthlySummary }

func (m MonthlySummary) DateOnly() MonthlySummary { return m }
