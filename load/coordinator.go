package load

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/transform"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/sirupsen/logrus"
)

// Row is a persisted model that can truncate its own date columns.
type Row[T any] interface {
	DateOnly() T
}

// Coordinator loads the tables of one run in foreign key order. Create one per run.
type Coordinator struct {
	Store  Store
	Logger *logrus.Logger
	loaded map[string]bool
}

func NewCoordinator(store Store, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{Store: store, Logger: logger, loaded: map[string]bool{}}
}

func (c *Coordinator) Loaded(table string) bool { return c.loaded[table] }

// checkOrder returns ErrLoadOrder when a dependency of table has not been loaded in this run.
func (c *Coordinator) checkOrder(table string) error {
	deps, known := models.TableDependencies[table]
	if !known {
		return fmt.Errorf("unknown table %q", table)
	}
	for _, dep := range deps {
		if !c.loaded[dep] {
			return fmt.Errorf("%w: %s requires %s", utils.ErrLoadOrder, table, dep)
		}
	}
	return nil
}

// Load persists rows into table after truncating their dates. Nothing is written
// when the dependency check fails. Any failure is a *utils.LoadFailure.
func Load[T Row[T]](ctx context.Context, c *Coordinator, table string, rows []T, mode LoadMode) error {
	if err := c.checkOrder(table); err != nil {
		return &utils.LoadFailure{Table: table, Rows: len(rows), Err: err}
	}

	normalized := make([]T, len(rows))
	for i, r := range rows {
		normalized[i] = r.DateOnly()
	}

	start := time.Now()
	if err := c.Store.BulkInsert(ctx, table, normalized, mode); err != nil {
		return &utils.LoadFailure{Table: table, Rows: len(rows), Err: describeStoreError(err)}
	}
	c.loaded[table] = true

	c.Logger.WithFields(logrus.Fields{
		"field":       "Load",
		"table":       table,
		"rows":        len(rows),
		"mode":        mode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).WithFields(logrus.Fields(utils.RunFields(ctx))).Info("table loaded")
	return nil
}

// LoadRaw loads customers, products, orders and order_items in that order,
// upserting by primary key. The first failure stops the sequence.
func (c *Coordinator) LoadRaw(ctx context.Context, out *transform.Output) error {
	if err := Load(ctx, c, models.TableCustomers, out.Customers, LoadModeAppend); err != nil {
		return err
	}
	if err := Load(ctx, c, models.TableProducts, out.Products, LoadModeAppend); err != nil {
		return err
	}
	if err := Load(ctx, c, models.TableOrders, out.Orders, LoadModeAppend); err != nil {
		return err
	}
	return Load(ctx, c, models.TableOrderItems, out.OrderItems, LoadModeAppend)
}

// LoadDerived replaces the three metrics tables. Raw tables must be loaded first.
func (c *Coordinator) LoadDerived(ctx context.Context, out *transform.Output) error {
	if err := Load(ctx, c, models.TableCustomerMetrics, out.CustomerMetrics, LoadModeReplace); err != nil {
		return err
	}
	if err := Load(ctx, c, models.TableProductMetrics, out.ProductMetrics, LoadModeReplace); err != nil {
		return err
	}
	return Load(ctx, c, models.TableMonthlySummary, out.MonthlySummary, LoadModeReplace)
}

func (c *Coordinator) LoadAll(ctx context.Context, out *transform.Output) error {
	if err := c.LoadRaw(ctx, out); err != nil {
		return err
	}
	return c.LoadDerived(ctx, out)
}
