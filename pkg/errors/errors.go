package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
)

// ConfigurationError indicates a malformed table/dialect/operation combination.
// It is detected when a statement is compiled and is never worth retrying.
type ConfigurationError struct {
	Table  string
	Reason string
}

func NewConfigurationError(table string, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Table: table, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error on %s: %s", e.Table, e.Reason)
}

// IsConfigurationError checks if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// ValidationFailedError indicates a column value was rejected by one of its validators.
type ValidationFailedError struct {
	Column  string
	Message string
}

func NewValidationFailedError(column, message string) *ValidationFailedError {
	return &ValidationFailedError{Column: column, Message: message}
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Column, e.Message)
}

func IsValidationFailedError(err error) bool {
	var e *ValidationFailedError
	return errors.As(err, &e)
}

// ConflictReason tells why an optimistic concurrency check failed.
type ConflictReason int

const (
	ConflictRowDeleted ConflictReason = iota
	ConflictRowUpdated
)

func (r ConflictReason) String() string {
	switch r {
	case ConflictRowDeleted:
		return "row deleted"
	case ConflictRowUpdated:
		return "row updated"
	default:
		return "unknown"
	}
}

// OptimisticConflictError indicates an UPDATE matched no row.
type OptimisticConflictError struct {
	Table  string
	Reason ConflictReason
}

func NewOptimisticConflictError(table string, reason ConflictReason) *OptimisticConflictError {
	return &OptimisticConflictError{Table: table, Reason: reason}
}

func (e *OptimisticConflictError) Error() string {
	return fmt.Sprintf("optimistic concurrency exception on %s: %s", e.Table, e.Reason)
}

func IsOptimisticConflictError(err error) bool {
	var e *OptimisticConflictError
	return errors.As(err, &e)
}

// BackendExecutionError wraps every error returned by the database driver so callers
// never have to deal with driver specific types.
type BackendExecutionError struct {
	Op         string
	Constraint bool
	Err        error
}

func NewBackendExecutionError(op string, err error) *BackendExecutionError {
	return &BackendExecutionError{Op: op, Constraint: IsConstraintViolation(err), Err: err}
}

func (e *BackendExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendExecutionError) Unwrap() error {
	return e.Err
}

func IsBackendExecutionError(err error) bool {
	var e *BackendExecutionError
	return errors.As(err, &e)
}

// ResourceNotFoundError indicates a resource was not found.
type ResourceNotFoundError struct {
	Kind string
	ID   string
}

func NewResourceNotFoundError(kind, id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: kind, ID: id}
}

func NewContainerNotFoundError(id string) *ResourceNotFoundError {
	return NewResourceNotFoundError("container", id)
}

func NewTableNotFoundError(name string) *ResourceNotFoundError {
	return NewResourceNotFoundError("table", name)
}

func NewFieldNotFoundError(name string) *ResourceNotFoundError {
	return NewResourceNotFoundError("field", name)
}

func (e *ResourceNotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}

// UnsupportedError indicates an operation is not defined for the receiver,
// e.g. in-memory evaluation of a clause that reads several fields.
type UnsupportedError struct {
	Op string
}

func NewUnsupportedError(op string) *UnsupportedError {
	return &UnsupportedError{Op: op}
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported operation: %s", e.Op)
}

func IsUnsupportedError(err error) bool {
	var e *UnsupportedError
	return errors.As(err, &e)
}

// SQL Server error numbers for constraint violations.
const (
	mssqlUniqueIndex      = 2601
	mssqlUniqueConstraint = 2627
	mssqlConstraint       = 547
	mssqlNotNull          = 515
)

// IsConstraintViolation reports whether err was caused by a database constraint
// (unique, foreign key, check or not-null).
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case mssqlUniqueIndex, mssqlUniqueConstraint, mssqlConstraint, mssqlNotNull:
			return true
		}
		return false
	}

	// duckdb and anything else without typed errors
	msg := err.Error()
	for _, s := range []string{
		"Constraint Error",
		"violates unique constraint",
		"violates foreign key constraint",
		"violates not-null constraint",
		"violates check constraint",
		"UNIQUE constraint failed",
		"FOREIGN KEY constraint failed",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// ConflictMessage prefixes the error raised by compiled programs when an UPDATE finds
// no row. IsConflictSignal matches it for drivers without typed errors.
const ConflictMessage = "optimistic conflict"

const (
	pgSerializationFailure = "40001"
	mssqlConflictNumber    = 50409
)

// IsConflictSignal reports whether err is the conflict raised from inside a compiled
// multi-statement program.
func IsConflictSignal(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure && strings.Contains(pgErr.Message, ConflictMessage)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgSerializationFailure && strings.Contains(pqErr.Message, ConflictMessage)
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlConflictNumber
	}

	return strings.Contains(err.Error(), ConflictMessage)
}
