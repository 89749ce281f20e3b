package models

import (
	"time"

	"github.com/mmdatafocus/orders_etl/utils"
)

type Customer struct {
	CustomerId       int64     `gorm:"primaryKey;autoIncrement:false" json:"customer_id"`
	CustomerName     string    `gorm:"size:255" json:"customer_name"`
	Email            string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	RegistrationDate time.Time `gorm:"type:date;not null" json:"registration_date"`
	Country          string    `gorm:"size:100" json:"country"`
	City             string    `gorm:"size:100" json:"city"`
	CustomerSegment  string    `gorm:"size:50" json:"customer_segment"`
}

func (Customer) TableName() string { return TableCustomers }

func (c Customer) DateOnly() Customer {
	c.RegistrationDate = utils.DateOnly(c.RegistrationDate)
	return c
}
