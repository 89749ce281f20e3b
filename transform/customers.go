package transform

import (
	"strings"

	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
)

// countryAliases maps known spellings to the canonical country name.
// Values not listed pass through unchanged.
var countryAliases = map[string]string{
	"US":            "USA",
	"United States": "USA",
	"UK":            "United Kingdom",
	"Deutschland":   "Germany",
}

func NormalizeCountry(v string) string {
	v = strings.TrimSpace(v)
	if canonical, ok := countryAliases[v]; ok {
		return canonical
	}
	return v
}

// CleanCustomers drops repeated emails (first occurrence wins), emails without '@'
// and unparseable registration dates, then maps country aliases.
func CleanCustomers(table extract.RawTable) ([]models.Customer, CleanStats, error) {
	stats := newCleanStats(extract.KindCustomers, table.Len())
	if err := checkColumns(extract.KindCustomers, table); err != nil {
		return nil, stats, err
	}
	r := newRowReader(extract.KindCustomers, table,
		"customer_id", "customer_name", "email", "registration_date", "country", "city", "customer_segment")

	seenEmail := map[string]bool{}
	seenId := map[int64]bool{}
	out := make([]models.Customer, 0, table.Len())
	for i, row := range table.Rows {
		email := strings.ToLower(r.text(row, "email"))
		if seenEmail[email] {
			stats.reject(r.rowError(i, "email", ReasonDuplicateEmail))
			continue
		}
		seenEmail[email] = true

		if !strings.Contains(email, "@") {
			stats.reject(r.rowError(i, "email", ReasonInvalidEmail))
			continue
		}
		id, rowErr := r.id(row, i, "customer_id")
		if rowErr != nil {
			stats.reject(rowErr)
			continue
		}
		registered, err := utils.ParseDate(r.raw(row, "registration_date"))
		if err != nil {
			stats.reject(r.rowError(i, "registration_date", ReasonInvalidDate))
			continue
		}
		if seenId[id] {
			stats.reject(r.rowError(i, "customer_id", ReasonDuplicateId))
			continue
		}
		seenId[id] = true

		out = append(out, models.Customer{
			CustomerId:       id,
			CustomerName:     r.text(row, "customer_name"),
			Email:            email,
			RegistrationDate: registered,
			Country:          NormalizeCountry(r.text(row, "country")),
			City:             r.text(row, "city"),
			CustomerSegment:  r.text(row, "customer_segment"),
		})
	}
	stats.Kept = len(out)
	return out, stats, nil
}
