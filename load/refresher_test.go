package load

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestBuildDailySummary(t *testing.T) {
	totals := []dailyOrderTotals{
		{SummaryDate: d("2024-03-02"), TotalOrders: 1, TotalRevenue: decimal.RequireFromString("5"), TotalCustomers: 1},
		{SummaryDate: d("2024-03-01"), TotalOrders: 3, TotalRevenue: decimal.RequireFromString("100"), TotalCustomers: 2},
	}
	revenue := []dailyCategoryRevenue{
		{SummaryDate: d("2024-03-01"), Category: "Sports", Revenue: decimal.RequireFromString("40")},
		{SummaryDate: d("2024-03-01"), Category: "Books", Revenue: decimal.RequireFromString("40")},
		{SummaryDate: d("2024-03-01"), Category: "Clothing", Revenue: decimal.RequireFromString("20")},
	}

	rows := BuildDailySummary(totals, revenue)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, d("2024-03-01"), first.SummaryDate)
	assert.Equal(t, int64(3), first.TotalOrders)
	assert.True(t, first.AvgOrderValue.Equal(decimal.RequireFromString("33.33")), first.AvgOrderValue.String())
	require.NotNil(t, first.TopCategory)
	assert.Equal(t, "Books", *first.TopCategory, "ties go to the alphabetically first category")

	assert.Nil(t, rows[1].TopCategory, "a date without items has no top category")
}

func TestRefreshDailySummary_ReplacesTable(t *testing.T) {
	store := &mockStore{}
	store.On("Transaction", mock.Anything).Return(nil)
	store.On("Query", mock.Anything, mock.Anything, dailyOrderTotalsSQL, mock.Anything).
		Return(nil).
		Run(func(args mock.Arguments) {
			dest := args.Get(1).(*[]dailyOrderTotals)
			*dest = []dailyOrderTotals{{SummaryDate: d("2024-03-01"), TotalOrders: 2, TotalRevenue: decimal.NewFromInt(30), TotalCustomers: 1}}
		})
	store.On("Query", mock.Anything, mock.Anything, dailyCategoryRevenueSQL, mock.Anything).Return(nil)
	var written []models.DailySalesSummary
	store.On("BulkInsert", mock.Anything, models.TableSalesSummary, mock.Anything, LoadModeReplace).
		Return(nil).
		Run(func(args mock.Arguments) { written = args.Get(2).([]models.DailySalesSummary) })

	n, err := NewRefresher(store, quietLogger()).RefreshDailySummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, written, 1)
	assert.True(t, written[0].AvgOrderValue.Equal(decimal.NewFromInt(15)))
	store.AssertExpectations(t)
}

func TestRefreshDailySummary_Failure(t *testing.T) {
	store := &mockStore{}
	store.On("Transaction", mock.Anything).Return(nil)
	store.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("table orders doesn't exist"))

	n, err := NewRefresher(store, quietLogger()).RefreshDailySummary(context.Background())
	assert.Equal(t, 0, n)
	var rf *utils.RefreshFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, utils.ErrCodeRefresh, utils.ErrorCode(err))
	store.AssertNotCalled(t, "BulkInsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
