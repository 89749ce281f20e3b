package models

import (
	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ItemId    int64    `gorm:"primaryKey;autoIncrement:false" json:"item_id"`
	OrderId   int64    `gorm:"index;not null" json:"order_id"`
	Order     *Order   `gorm:"foreignKey:OrderId;references:OrderId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductId int64    `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductId;references:ProductId;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`

	Quantity           int64           `gorm:"not null" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_price"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	FinalPrice         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"final_price"`
}

func (OrderItem) TableName() string { return TableOrderItems }

// DateOnly is a no-op; order items carry no date columns.
func (i OrderItem) DateOnly() OrderItem { return i }
