package transform

import (
	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var hundred = decimal.NewFromInt(100)

// ProfitMargin is (unit - cost) / unit * 100 rounded to 2 places. unit must be > 0.
func ProfitMargin(unit, cost decimal.Decimal) decimal.Decimal {
	return utils.Round2(unit.Sub(cost).Div(unit).Mul(hundred))
}

// CleanProducts drops rows with a missing or non-positive unit or cost price.
// An unparseable created_date becomes null and the row is kept.
func CleanProducts(table extract.RawTable) ([]models.Product, CleanStats, error) {
	stats := newCleanStats(extract.KindProducts, table.Len())
	if err := checkColumns(extract.KindProducts, table); err != nil {
		return nil, stats, err
	}
	r := newRowReader(extract.KindProducts, table,
		"product_id", "product_name", "category", "subcategory", "brand", "unit_price", "cost_price", "created_date")
	title := cases.Title(language.English)

	seenId := map[int64]bool{}
	out := make([]models.Product, 0, table.Len())
	for i, row := range table.Rows {
		id, rowErr := r.id(row, i, "product_id")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		unit, rowErr := r.positiveDecimal(row, i, "unit_price")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		cost, rowErr := r.positiveDecimal(row, i, "cost_price")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		if seenId[id] {
			stats.reject(r.rowError(i, "product_id", ReasonDuplicateId))
			continue
		}
		seenId[id] = true

		p := models.Product{
			ProductId:    id,
			ProductName:  r.text(row, "product_name"),
			Category:     title.String(r.text(row, "category")),
			Subcategory:  title.String(r.text(row, "subcategory")),
			Brand:        r.text(row, "brand"),
			UnitPrice:    unit,
			CostPrice:    cost,
			ProfitMargin: ProfitMargin(unit, cost),
		}
		if created, err := utils.ParseDate(r.raw(row, "created_date")); err == nil {
			p.CreatedDate = &created
		}
		out = append(out, p)
	}
	stats.Kept = len(out)
	return out, stats, nil
}

func (r rowReader) positiveDecimal(row []string, index int, name string) (decimal.Decimal, *utils.RowValidationError) {
	v, err := utils.ParseDecimal(r.raw(row, name))
	if err != nil {
		return decimal.Zero, r.rowError(index, name, ReasonInvalidNumber)
	}
	if !v.IsPositive() {
		return decimal.Zero, r.rowError(index, name, ReasonNonPositive)
	}
	return v, nil
}

// optionalDecimal treats an empty cell as zero and rejects negatives.
func (r rowReader) optionalDecimal(row []string, index int, name string) (decimal.Decimal, *utils.RowValidationError) {
	raw := r.raw(row, name)
	if utils.IsEmptyValue(raw) {
		return decimal.Zero, nil
	}
	v, err := utils.ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, r.rowError(index, name, ReasonInvalidNumber)
	}
	if v.IsNegative() {
		return decimal.Zero, r.rowError(index, name, ReasonNegative)
	}
	return v, nil
}
