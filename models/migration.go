package models

import (
	"gorm.io/gorm"
)

// MigrateTable creates or updates every pipeline table, parents before children
// so the foreign keys on orders and order_items can be created.
func MigrateTable(db *gorm.DB) error {
	return db.AutoMigrate(
		&Customer{}, &Product{},
		&Order{},
		&OrderItem{},
		&CustomerMetric{}, &ProductMetric{}, &MonthlySummary{},
		&DailySalesSummary{},
		&PipelineRun{},
	)
}
