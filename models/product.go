package models

import (
	"time"

	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ProductId    int64           `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	ProductName  string          `gorm:"size:255" json:"product_name"`
	Category     string          `gorm:"size:100;index" json:"category"`
	Subcategory  string          `gorm:"size:100" json:"subcategory"`
	Brand        string          `gorm:"size:100" json:"brand"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"cost_price"`
	ProfitMargin decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"profit_margin"`
	CreatedDate  *time.Time      `gorm:"type:date" json:"created_date"`
}

func (Product) TableName() string { return TableProducts }

func (p Product) DateOnly() Product {
	p.CreatedDate = utils.DateOnlyPtr(p.CreatedDate)
	return p
}
