package transform

import (
	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/models"
)

// Output is everything a full run loads. Orders and OrderItems are already
// referentially filtered.
type Output struct {
	Customers       []models.Customer       `json:"customers"`
	Products        []models.Product        `json:"products"`
	Orders          []models.Order          `json:"orders"`
	OrderItems      []models.OrderItem      `json:"order_items"`
	CustomerMetrics []models.CustomerMetric `json:"customer_metrics"`
	ProductMetrics  []models.ProductMetric  `json:"product_metrics"`
	MonthlySummary  []models.MonthlySummary `json:"monthly_summary"`
	Stats           map[string]CleanStats   `json:"stats"`
	Filter          FilterStats             `json:"filter"`
}

// RowCounts per output table.
func (o *Output) RowCounts() map[string]int {
	return map[string]int{
		models.TableCustomers:       len(o.Customers),
		models.TableProducts:        len(o.Products),
		models.TableOrders:          len(o.Orders),
		models.TableOrderItems:      len(o.OrderItems),
		models.TableCustomerMetrics: len(o.CustomerMetrics),
		models.TableProductMetrics:  len(o.ProductMetrics),
		models.TableMonthlySummary:  len(o.MonthlySummary),
	}
}

// Run cleans the four raw collections and aggregates them. It reads no clock and
// has no randomness, so the same input always yields the same Output.
func Run(raw *extract.RawData) (*Output, error) {
	out := &Output{Stats: map[string]CleanStats{}}

	customers, stats, err := CleanCustomers(raw.Customers)
	if err != nil {
		return nil, err
	}
	out.Stats[extract.KindCustomers] = stats

	products, stats, err := CleanProducts(raw.Products)
	if err != nil {
		return nil, err
	}
	out.Stats[extract.KindProducts] = stats

	orders, stats, err := CleanOrders(raw.Orders)
	if err != nil {
		return nil, err
	}
	out.Stats[extract.KindOrders] = stats

	items, stats, err := CleanOrderItems(raw.OrderItems)
	if err != nil {
		return nil, err
	}
	out.Stats[extract.KindOrderItems] = stats

	agg, err := Aggregate(orders, items, customers, products)
	if err != nil {
		return nil, err
	}

	out.Customers = customers
	out.Products = products
	out.Orders = agg.Orders
	out.OrderItems = agg.OrderItems
	out.CustomerMetrics = agg.CustomerMetrics
	out.ProductMetrics = agg.ProductMetrics
	out.MonthlySummary = agg.MonthlySummary
	out.Filter = agg.Filter
	return out, nil
}
