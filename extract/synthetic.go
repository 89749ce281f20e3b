package extract

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultSeed int64 = 42

var (
	syntheticCountries = []weighted{{"USA", 40}, {"Canada", 20}, {"UK", 15}, {"Germany", 15}, {"France", 10}}
	syntheticCities    = []string{"New York", "London", "Toronto", "Berlin", "Paris"}
	syntheticSegments  = []weighted{{"Premium", 20}, {"Regular", 60}, {"Bronze", 20}}
	syntheticShipModes = []string{"Standard", "Express", "Priority"}
	syntheticStatuses  = []weighted{{"Completed", 80}, {"Pending", 10}, {"Shipped", 10}}

	syntheticCategories = []struct {
		Name string
		Subs []string
	}{
		{"Electronics", []string{"Phones", "Laptops", "Accessories"}},
		{"Clothing", []string{"Men", "Women", "Kids"}},
		{"Home & Garden", []string{"Furniture", "Decor", "Tools"}},
		{"Sports", []string{"Fitness", "Outdoor", "Team Sports"}},
		{"Books", []string{"Fiction", "Non-Fiction", "Technical"}},
	}
)

type weighted struct {
	Value  string
	Weight int
}

// Generator produces a development data set. Output depends only on Seed and Now.
type Generator struct {
	Seed              int64
	Now               time.Time
	Customers         int
	ProductsPerSubcat int
	Orders            int
}

func NewGenerator(seed int64, now time.Time) *Generator {
	return &Generator{
		Seed:              seed,
		Now:               now,
		Customers:         1000,
		ProductsPerSubcat: 20,
		Orders:            2000,
	}
}

func (g *Generator) Generate() *RawData {
	rng := rand.New(rand.NewSource(g.Seed))
	today := time.Date(g.Now.Year(), g.Now.Month(), g.Now.Day(), 0, 0, 0, 0, time.UTC)

	data := &RawData{
		Customers: RawTable{Name: KindCustomers, Header: []string{
			"customer_id", "customer_name", "email", "registration_date", "country", "city", "customer_segment",
		}},
		Products: RawTable{Name: KindProducts, Header: []string{
			"product_id", "product_name", "category", "subcategory", "unit_price", "cost_price", "brand", "created_date",
		}},
		Orders: RawTable{Name: KindOrders, Header: []string{
			"order_id", "customer_id", "order_date", "ship_date", "ship_mode", "order_status", "discount_amount", "total_amount",
		}},
		OrderItems: RawTable{Name: KindOrderItems, Header: []string{
			"item_id", "order_id", "product_id", "quantity", "unit_price", "total_price", "discount_percentage",
		}},
	}

	for i := 1; i <= g.Customers; i++ {
		id := strconv.Itoa(i)
		data.Customers.Rows = append(data.Customers.Rows, []string{
			id,
			"Customer " + id,
			"customer" + id + "@email.com",
			dateString(today.AddDate(0, 0, -(1 + rng.Intn(364)))),
			pick(rng, syntheticCountries),
			syntheticCities[rng.Intn(len(syntheticCities))],
			pick(rng, syntheticSegments),
		})
	}

	type product struct {
		id    int
		price decimal.Decimal
	}
	var products []product
	productId := 1
	for _, c := range syntheticCategories {
		for _, sub := range c.Subs {
			for i := 1; i <= g.ProductsPerSubcat; i++ {
				price := money(10 + rng.Float64()*490)
				products = append(products, product{id: productId, price: price})
				data.Products.Rows = append(data.Products.Rows, []string{
					strconv.Itoa(productId),
					sub + " Product " + strconv.Itoa(i),
					c.Name,
					sub,
					price.StringFixed(2),
					money(5 + rng.Float64()*245).StringFixed(2),
					"Brand " + strconv.Itoa(1+rng.Intn(9)),
					dateString(today.AddDate(0, 0, -(1 + rng.Intn(179)))),
				})
				productId++
			}
		}
	}

	itemId := 1
	for orderId := 1; orderId <= g.Orders && len(products) > 0 && g.Customers > 0; orderId++ {
		orderDate := today.AddDate(0, 0, -(1 + rng.Intn(89)))
		shipDate := orderDate.AddDate(0, 0, 1+rng.Intn(6))
		discount := money(rng.Float64() * 50)

		total := decimal.Zero
		for n := 1 + rng.Intn(4); n > 0; n-- {
			p := products[rng.Intn(len(products))]
			qty := 1 + rng.Intn(3)
			lineTotal := p.price.Mul(decimal.NewFromInt(int64(qty)))
			total = total.Add(lineTotal)
			data.OrderItems.Rows = append(data.OrderItems.Rows, []string{
				strconv.Itoa(itemId),
				strconv.Itoa(orderId),
				strconv.Itoa(p.id),
				strconv.Itoa(qty),
				p.price.StringFixed(2),
				lineTotal.StringFixed(2),
				decimal.NewFromFloat(rng.Float64() * 15).StringFixed(4),
			})
			itemId++
		}

		data.Orders.Rows = append(data.Orders.Rows, []string{
			strconv.Itoa(orderId),
			strconv.Itoa(1 + rng.Intn(g.Customers)),
			dateString(orderDate),
			dateString(shipDate),
			syntheticShipModes[rng.Intn(len(syntheticShipModes))],
			pick(rng, syntheticStatuses),
			discount.StringFixed(2),
			total.Sub(discount).Round(2).StringFixed(2),
		})
	}
	return data
}

func pick(rng *rand.Rand, choices []weighted) string {
	total := 0
	for _, c := range choices {
		total += c.Weight
	}
	n := rng.Intn(total)
	for _, c := range choices {
		if n < c.Weight {
			return c.Value
		}
		n -= c.Weight
	}
	return choices[len(choices)-1].Value
}

func money(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(2)
}

func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}
