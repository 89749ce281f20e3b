package transform

import (
	"slices"

	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// FilterStats counts rows removed by the referential filters.
type FilterStats struct {
	OrdersWithoutCustomer int `json:"orders_without_customer"`
	ItemsWithoutOrder     int `json:"items_without_order"`
	ItemsWithoutProduct   int `json:"items_without_product"`
}

// Aggregates is the output of Aggregate. Orders and OrderItems are the
// referentially filtered sets that must be loaded instead of the cleaned inputs.
type Aggregates struct {
	Orders          []models.Order          `json:"orders"`
	OrderItems      []models.OrderItem      `json:"order_items"`
	CustomerMetrics []models.CustomerMetric `json:"customer_metrics"`
	ProductMetrics  []models.ProductMetric  `json:"product_metrics"`
	MonthlySummary  []models.MonthlySummary `json:"monthly_summary"`
	Filter          FilterStats             `json:"filter"`
}

// Aggregate filters orders and items down to the rows whose references survived
// cleaning and derives customer, product and monthly metrics from them.
// Inputs are not modified. Every output slice is sorted by its key.
func Aggregate(orders []models.Order, items []models.OrderItem, customers []models.Customer, products []models.Product) (*Aggregates, error) {
	agg := &Aggregates{}

	customerIds := lo.SliceToMap(customers, func(c models.Customer) (int64, struct{}) { return c.CustomerId, struct{}{} })
	agg.Orders = lo.Filter(orders, func(o models.Order, _ int) bool {
		_, ok := customerIds[o.CustomerId]
		return ok
	})
	agg.Filter.OrdersWithoutCustomer = len(orders) - len(agg.Orders)
	if len(orders) > 0 && len(agg.Orders) == 0 {
		return nil, utils.NewDataIntegrityError(models.TableOrders, "no order references a cleaned customer")
	}

	orderIds := lo.SliceToMap(agg.Orders, func(o models.Order) (int64, struct{}) { return o.OrderId, struct{}{} })
	productIds := lo.SliceToMap(products, func(p models.Product) (int64, struct{}) { return p.ProductId, struct{}{} })
	agg.OrderItems = make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		if _, ok := orderIds[it.OrderId]; !ok {
			agg.Filter.ItemsWithoutOrder++
			continue
		}
		if _, ok := productIds[it.ProductId]; !ok {
			agg.Filter.ItemsWithoutProduct++
			continue
		}
		agg.OrderItems = append(agg.OrderItems, it)
	}
	if len(items) > 0 && len(agg.OrderItems) == 0 {
		return nil, utils.NewDataIntegrityError(models.TableOrderItems, "no order item references a retained order and a cleaned product")
	}

	agg.CustomerMetrics = customerMetrics(agg.Orders)
	agg.ProductMetrics = productMetrics(agg.OrderItems)
	agg.MonthlySummary = monthlySummary(agg.Orders)
	return agg, nil
}

func customerMetrics(orders []models.Order) []models.CustomerMetric {
	groups := lo.GroupBy(orders, func(o models.Order) int64 { return o.CustomerId })
	keys := lo.Keys(groups)
	slices.Sort(keys)

	out := make([]models.CustomerMetric, 0, len(keys))
	for _, customerId := range keys {
		group := groups[customerId]
		total := decimal.Zero
		maxValue := group[0].TotalAmount
		first, last := group[0].OrderDate, group[0].OrderDate
		for _, o := range group {
			total = total.Add(o.TotalAmount)
			if o.TotalAmount.GreaterThan(maxValue) {
				maxValue = o.TotalAmount
			}
			if o.OrderDate.Before(first) {
				first = o.OrderDate
			}
			if o.OrderDate.After(last) {
				last = o.OrderDate
			}
		}
		count := int64(len(group))
		out = append(out, models.CustomerMetric{
			CustomerId:           customerId,
			OrderCount:           count,
			TotalSpent:           utils.Round2(total),
			AvgOrderValue:        utils.Round2(total.Div(decimal.NewFromInt(count))),
			MaxOrderValue:        utils.Round2(maxValue),
			FirstOrder:           first,
			LastOrder:            last,
			CustomerLifetimeDays: utils.FloorDays(last.Sub(first)),
		})
	}
	return out
}

func productMetrics(items []models.OrderItem) []models.ProductMetric {
	groups := lo.GroupBy(items, func(it models.OrderItem) int64 { return it.ProductId })
	keys := lo.Keys(groups)
	slices.Sort(keys)

	out := make([]models.ProductMetric, 0, len(keys))
	for _, productId := range keys {
		group := groups[productId]
		revenue := decimal.Zero
		var qty int64
		for _, it := range group {
			qty += it.Quantity
			revenue = revenue.Add(it.TotalPrice)
		}
		orderIds := lo.Uniq(lo.Map(group, func(it models.OrderItem, _ int) int64 { return it.OrderId }))
		out = append(out, models.ProductMetric{
			ProductId:         productId,
			TotalQuantitySold: qty,
			TotalRevenue:      utils.Round2(revenue),
			UniqueOrders:      int64(len(orderIds)),
		})
	}
	return out
}

func monthlySummary(orders []models.Order) []models.MonthlySummary {
	groups := lo.GroupBy(orders, func(o models.Order) string { return o.OrderMonth })
	keys := lo.Keys(groups)
	slices.Sort(keys)

	out := make([]models.MonthlySummary, 0, len(keys))
	for _, month := range keys {
		group := groups[month]
		revenue := decimal.Zero
		for _, o := range group {
			revenue = revenue.Add(o.TotalAmount)
		}
		revenue = utils.Round2(revenue)
		count := int64(len(group))
		customers := lo.Uniq(lo.Map(group, func(o models.Order, _ int) int64 { return o.CustomerId }))
		out = append(out, models.MonthlySummary{
			OrderMonth:     month,
			TotalOrders:    count,
			TotalRevenue:   revenue,
			TotalCustomers: int64(len(customers)),
			AvgOrderValue:  utils.Round2(revenue.Div(decimal.NewFromInt(count))),
		})
	}
	return out
}
