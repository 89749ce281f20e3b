package models

import "github.com/shopspring/decimal"

// ProductMetric is one row per product with at least one surviving order item.
type ProductMetric struct {
	ProductId         int64           `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	TotalQuantitySold int64           `gorm:"not null" json:"total_quantity_sold"`
	TotalRevenue      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_revenue"`
	UniqueOrders      int64           `gorm:"not null" json:"unique_orders"`
}

func (ProductMetric) TableName() string { return TableProductMetrics }

func (m ProductMetric) DateOnly() ProductMetric { return m }
