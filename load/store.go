package load

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoadMode string

const (
	// LoadModeAppend inserts rows and overwrites rows whose primary key already exists.
	LoadModeAppend LoadMode = "append"
	// LoadModeReplace deletes every row of the table and inserts the new set.
	LoadModeReplace LoadMode = "replace"
)

// Statement is one entry of an ExecBatch call.
type Statement struct {
	SQL  string
	Args []any
}

// Store is the backing relational store. BulkInsert and ExecBatch each run in
// one transaction; Transaction lets a caller group several calls.
type Store interface {
	Query(ctx context.Context, dest any, sql string, args ...any) error
	BulkInsert(ctx context.Context, table string, rows any, mode LoadMode) error
	ExecBatch(ctx context.Context, stmts []Statement) error
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

const defaultBatchSize = 500

// GormStore implements Store over gorm (mysql or postgres dialector).
type GormStore struct {
	DB        *gorm.DB
	BatchSize int
}

func NewGormStore(db *gorm.DB, batchSize int) *GormStore {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &GormStore{DB: db, BatchSize: batchSize}
}

func (s *GormStore) Query(ctx context.Context, dest any, sql string, args ...any) error {
	return s.DB.WithContext(ctx).Raw(sql, args...).Scan(dest).Error
}

// BulkInsert expects rows to be a slice of gorm models. Associations are never written.
func (s *GormStore) BulkInsert(ctx context.Context, table string, rows any, mode LoadMode) error {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("bulk insert %s: rows must be a slice, got %T", table, rows)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch mode {
		case LoadModeReplace:
			if err := tx.Exec("DELETE FROM " + tx.Statement.Quote(table)).Error; err != nil {
				return err
			}
		case LoadModeAppend:
		default:
			return fmt.Errorf("unknown load mode %q", mode)
		}
		if v.Len() == 0 {
			return nil
		}
		q := tx.Table(table).Omit(clause.Associations)
		if mode == LoadModeAppend {
			q = q.Clauses(clause.OnConflict{UpdateAll: true})
		}
		return q.CreateInBatches(rows, s.BatchSize).Error
	})
}

func (s *GormStore) ExecBatch(ctx context.Context, stmts []Statement) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, st := range stmts {
			if err := tx.Exec(st.SQL, st.Args...).Error; err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx, BatchSize: s.BatchSize})
	})
}

// MySQL server error numbers surfaced in load failures.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

// describeStoreError names constraint violations so a failed load is diagnosable from the log alone.
func describeStoreError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrNoReferencedRow:
			return fmt.Errorf("foreign key violation, referenced row missing (mysql %d): %w", me.Number, err)
		case mysqlErrRowIsReferenced:
			return fmt.Errorf("foreign key violation, row still referenced (mysql %d): %w", me.Number, err)
		case mysqlErrDuplicateEntry:
			return fmt.Errorf("duplicate key (mysql %d): %w", me.Number, err)
		}
	}
	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("foreign key violation: %w", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("duplicate key: %w", err)
	}
	return err
}
