package transform

import (
	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
)

// CleanOrderItems drops non-positive quantities and unit prices and recomputes
// total_price, discount_amount and final_price. The raw total_price is ignored.
func CleanOrderItems(table extract.RawTable) ([]models.OrderItem, CleanStats, error) {
	stats := newCleanStats(extract.KindOrderItems, table.Len())
	if err := checkColumns(extract.KindOrderItems, table); err != nil {
		return nil, stats, err
	}
	r := newRowReader(extract.KindOrderItems, table,
		"item_id", "order_id", "product_id", "quantity", "unit_price", "discount_percentage")

	seenId := map[int64]bool{}
	out := make([]models.OrderItem, 0, table.Len())
	for i, row := range table.Rows {
		id, rowErr := r.id(row, i, "item_id")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		orderId, rowErr := r.id(row, i, "order_id")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		productId, rowErr := r.id(row, i, "product_id")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		qty, rowErr := r.quantity(row, i)
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		unit, rowErr := r.positiveDecimal(row, i, "unit_price")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		pct, rowErr := r.optionalDecimal(row, i, "discount_percentage")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		if pct.GreaterThan(hundred) {
			stats.reject(r.rowError(i, "discount_percentage", ReasonOutOfRange))
			continue
		}
		if seenId[id] {
			stats.reject(r.rowError(i, "item_id", ReasonDuplicateId))
			continue
		}
		seenId[id] = true

		total := unit.Mul(decimal.NewFromInt(qty))
		discount := utils.Round2(total.Mul(pct).Div(hundred))
		out = append(out, models.OrderItem{
			ItemId:             id,
			OrderId:            orderId,
			ProductId:          productId,
			Quantity:           qty,
			UnitPrice:          unit,
			TotalPrice:         total,
			DiscountPercentage: pct,
			DiscountAmount:     discount,
			FinalPrice:         total.Sub(discount),
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}

func (r rowReader) quantity(row []string, index int) (int64, *utils.RowValidationError) {
	raw := r.raw(row, "quantity")
	qty, err := utils.ParseInt64(raw)
	if err != nil {
		if _, decErr := utils.ParseDecimal(raw); decErr == nil {
			return 0, r.rowError(index, "quantity", ReasonNotInteger)
		}
		return 0, r.rowError(index, "quantity", ReasonInvalidNumber)
	}
	if qty <= 0 {
		return 0, r.rowError(index, "quantity", ReasonNonPositive)
	}
	return qty, nil
}
