package load

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/extract"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/transform"
	"github.com/mmdatafocus/orders_etl/utils"
)

// Run (requires Docker): INTEGRATION_TESTS=1 go test ./load -run MySQL -v
func TestMySQLFullLoadIsIdempotent(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}
	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "orders_etl_test")

	if err := config.ConnectDatabaseWithRetry(20); err != nil {
		t.Fatalf("ConnectDatabaseWithRetry: %v", err)
	}
	db := config.GetDB()
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	gen := extract.NewGenerator(extract.DefaultSeed, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	gen.Customers, gen.Orders = 40, 120
	out, err := transform.Run(gen.Generate())
	if err != nil {
		t.Fatalf("transform.Run: %v", err)
	}

	store := NewGormStore(db, 50)
	refresher := NewRefresher(store, quietLogger())
	for run := 1; run <= 2; run++ {
		if err := NewCoordinator(store, quietLogger()).LoadAll(ctx, out); err != nil {
			t.Fatalf("run %d LoadAll: %v", run, err)
		}
		if _, err := refresher.RefreshDailySummary(ctx); err != nil {
			t.Fatalf("run %d RefreshDailySummary: %v", run, err)
		}
	}

	counts := map[string]int{
		models.TableCustomers:       len(out.Customers),
		models.TableOrders:          len(out.Orders),
		models.TableOrderItems:      len(out.OrderItems),
		models.TableCustomerMetrics: len(out.CustomerMetrics),
		models.TableMonthlySummary:  len(out.MonthlySummary),
	}
	for table, want := range counts {
		var got int64
		if err := db.Table(table).Count(&got).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if int(got) != want {
			t.Fatalf("%s: %d rows after two runs, want %d", table, got, want)
		}
	}

	var dates, summaryRows int64
	if err := db.Raw("SELECT COUNT(DISTINCT order_date) FROM orders").Scan(&dates).Error; err != nil {
		t.Fatalf("count dates: %v", err)
	}
	if err := db.Table(models.TableSalesSummary).Count(&summaryRows).Error; err != nil {
		t.Fatalf("count summary: %v", err)
	}
	if dates != summaryRows {
		t.Fatalf("sales_summary has %d rows for %d dates", summaryRows, dates)
	}

	// An item pointing at a missing order must be refused by the foreign key.
	orphan := []models.OrderItem{out.OrderItems[0]}
	orphan[0].ItemId = 9_999_999
	orphan[0].OrderId = 9_999_999
	c := NewCoordinator(store, quietLogger())
	c.loaded[models.TableOrders] = true
	c.loaded[models.TableProducts] = true
	err = Load(ctx, c, models.TableOrderItems, orphan, LoadModeAppend)
	var lf *utils.LoadFailure
	if !errors.As(err, &lf) || !strings.Contains(err.Error(), "foreign key") {
		t.Fatalf("expected foreign key LoadFailure, got %v", err)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("orders-etl-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=orders_etl_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
