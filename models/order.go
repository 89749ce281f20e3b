package models

import (
	"time"

	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
)

type Order struct {
	OrderId    int64     `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	CustomerId int64     `gorm:"index;not null" json:"customer_id"`
	Customer   *Customer `gorm:"foreignKey:CustomerId;references:CustomerId;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`

	OrderDate    time.Time  `gorm:"type:date;index;not null" json:"order_date"`
	ShipDate     *time.Time `gorm:"type:date" json:"ship_date"`
	ShippingDays *int       `json:"shipping_days"`
	ShipMode     string     `gorm:"size:50" json:"ship_mode"`
	OrderStatus  string     `gorm:"size:50" json:"order_status"`

	DiscountAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_amount"`

	OrderMonth string `gorm:"size:7;index" json:"order_month"`
	OrderYear  int    `json:"order_year"`
	DayOfWeek  string `gorm:"size:10" json:"day_of_week"`
}

func (Order) TableName() string { return TableOrders }

func (o Order) DateOnly() Order {
	o.OrderDate = utils.DateOnly(o.OrderDate)
	o.ShipDate = utils.DateOnlyPtr(o.ShipDate)
	return o
}
