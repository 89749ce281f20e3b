package utils

import (
	"errors"
	"fmt"
)

// Error codes carried by every pipeline error.
const (
	ErrCodeRowValidation = "ROW_VALIDATION"
	ErrCodeDataIntegrity = "DATA_INTEGRITY"
	ErrCodeLoadFailure   = "LOAD_FAILURE"
	ErrCodeRefresh       = "REFRESH_FAILURE"
	ErrCodeStage         = "STAGE_FAILURE"
)

var (
	ErrorRecordNotFound = errors.New("record not found")
	// ErrLoadOrder is returned when a table is loaded before the tables it references.
	ErrLoadOrder = errors.New("table loaded before its dependencies")
)

// CodedError is implemented by every error of the pipeline taxonomy.
type CodedError interface {
	error
	Code() string
}

// ErrorCode returns the taxonomy code of err, or "" when err is not part of it.
func ErrorCode(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// RowValidationError describes a single raw row rejected by a cleaning rule.
// It never leaves the cleaner; rejected rows are only counted.
type RowValidationError struct {
	Entity string
	Row    int
	Field  string
	Reason string
}

func (e *RowValidationError) Error() string {
	return fmt.Sprintf("%s row %d: %s: %s", e.Entity, e.Row, e.Field, e.Reason)
}

func (e *RowValidationError) Code() string { return ErrCodeRowValidation }

// DataIntegrityError means an input is structurally unusable or a referential
// filter discarded a whole non-empty set.
type DataIntegrityError struct {
	Entity  string
	Message string
	Err     error
}

func NewDataIntegrityError(entity, message string) *DataIntegrityError {
	return &DataIntegrityError{Entity: entity, Message: message}
}

func (e *DataIntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data integrity (%s): %s: %s", e.Entity, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("data integrity (%s): %s", e.Entity, e.Message)
}

func (e *DataIntegrityError) Code() string  { return ErrCodeDataIntegrity }
func (e *DataIntegrityError) Unwrap() error { return e.Err }

// LoadFailure reports a table load that failed; it aborts the rest of the load order.
type LoadFailure struct {
	Table string
	Rows  int
	Err   error
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("load %s (%d rows): %v", e.Table, e.Rows, e.Err)
}

func (e *LoadFailure) Code() string  { return ErrCodeLoadFailure }
func (e *LoadFailure) Unwrap() error { return e.Err }

// RefreshFailure reports a failed daily summary refresh.
type RefreshFailure struct {
	Err error
}

func (e *RefreshFailure) Error() string {
	return fmt.Sprintf("refresh sales_summary: %v", e.Err)
}

func (e *RefreshFailure) Code() string  { return ErrCodeRefresh }
func (e *RefreshFailure) Unwrap() error { return e.Err }

// StageError is what the orchestrator returns: the failing stage plus its cause.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

// Code keeps the code of the underlying cause so callers can tell load from refresh failures.
func (e *StageError) Code() string {
	if code := ErrorCode(e.Err); code != "" {
		return code
	}
	return ErrCodeStage
}

func (e *StageError) Unwrap() error { return e.Err }
