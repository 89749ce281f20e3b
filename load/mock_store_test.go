package load

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Query(ctx context.Context, dest any, sql string, args ...any) error {
	return m.Called(ctx, dest, sql, args).Error(0)
}

func (m *mockStore) BulkInsert(ctx context.Context, table string, rows any, mode LoadMode) error {
	return m.Called(ctx, table, rows, mode).Error(0)
}

func (m *mockStore) ExecBatch(ctx context.Context, stmts []Statement) error {
	return m.Called(ctx, stmts).Error(0)
}

func (m *mockStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return fn(m)
}
