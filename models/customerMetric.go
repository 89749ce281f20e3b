package models

import (
	"time"

	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
)

// CustomerMetric is one row per customer with at least one retained order.
type CustomerMetric struct {
	CustomerId           int64           `gorm:"primaryKey;autoIncrement:false" json:"customer_id"`
	OrderCount           int64           `gorm:"not null" json:"order_count"`
	TotalSpent           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_spent"`
	AvgOrderValue        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"avg_order_value"`
	MaxOrderValue        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"max_order_value"`
	FirstOrder           time.Time       `gorm:"type:date" json:"first_order"`
	LastOrder            time.Time       `gorm:"type:date" json:"last_order"`
	CustomerLifetimeDays int             `json:"customer_lifetime_days"`
}

func (CustomerMetric) TableName() string { return TableCustomerMetrics }

func (m CustomerMetric) DateOnly() CustomerMetric {
	m.FirstOrder = utils.DateOnly(m.FirstOrder)
	m.LastOrder = utils.DateOnly(m.LastOrder)
	return m
}
