package transform

import (
	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
)

// CleanOrders parses dates, derives shipping_days and the order calendar fields,
// drops non-positive totals and defaults an empty discount to zero.
// Negative shipping_days are kept and counted under NoteNegativeShipping.
func CleanOrders(table extract.RawTable) ([]models.Order, CleanStats, error) {
	stats := newCleanStats(extract.KindOrders, table.Len())
	if err := checkColumns(extract.KindOrders, table); err != nil {
		return nil, stats, err
	}
	r := newRowReader(extract.KindOrders, table,
		"order_id", "customer_id", "order_date", "ship_date", "ship_mode", "order_status", "discount_amount", "total_amount")

	seenId := map[int64]bool{}
	out := make([]models.Order, 0, table.Len())
	for i, row := range table.Rows {
		id, rowErr := r.id(row, i, "order_id")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		customerId, rowErr := r.id(row, i, "customer_id")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		orderDate, err := utils.ParseDate(r.raw(row, "order_date"))
		if err != nil {
			stats.reject(r.rowError(i, "order_date", ReasonInvalidDate))
			continue
		}
		total, rowErr := r.positiveDecimal(row, i, "total_amount")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		discount, rowErr := r.optionalDecimal(row, i, "discount_amount")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		if seenId[id] {
			stats.reject(r.rowError(i, "order_id", ReasonDuplicateId))
			continue
		}
		seenId[id] = true

		o := models.Order{
			OrderId:        id,
			CustomerId:     customerId,
			OrderDate:      orderDate,
			ShipMode:       r.text(row, "ship_mode"),
			OrderStatus:    r.text(row, "order_status"),
			DiscountAmount: discount,
			TotalAmount:    total,
			OrderMonth:     orderDate.Format("2006-01"),
			OrderYear:      orderDate.Year(),
			DayOfWeek:      orderDate.Weekday().String(),
		}
		if shipDate, err := utils.ParseDate(r.raw(row, "ship_date")); err == nil {
			days := utils.FloorDays(shipDate.Sub(orderDate))
			o.ShipDate = &shipDate
			o.ShippingDays = &days
			if days < 0 {
				stats.note(NoteNegativeShipping)
			}
		}
		out = append(out, o)
	}
	stats.Kept = len(out)
	return out, stats, nil
}
