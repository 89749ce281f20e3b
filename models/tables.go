package models

// Persisted table names. These are read by the dashboard and must not change.
const (
	TableCustomers       = "customers"
	TableProducts        = "products"
	TableOrders          = "orders"
	TableOrderItems      = "order_items"
	TableCustomerMetrics = "customer_metrics"
	TableProductMetrics  = "product_metrics"
	TableMonthlySummary  = "monthly_summary"
	TableSalesSummary    = "sales_summary"
	TablePipelineRuns    = "pipeline_runs"
)

// RawTables in foreign key order.
var RawTables = []string{TableCustomers, TableProducts, TableOrders, TableOrderItems}

var DerivedTables = []string{TableCustomerMetrics, TableProductMetrics, TableMonthlySummary}

// TableDependencies lists, per loadable table, the tables that must already be
// loaded in the same run.
var TableDependencies = map[string][]string{
	TableCustomers:       nil,
	TableProducts:        nil,
	TableOrders:          {TableCustomers},
	TableOrderItems:      {TableOrders, TableProducts},
	TableCustomerMetrics: RawTables,
	TableProductMetrics:  RawTables,
	TableMonthlySummary:  RawTables,
}
