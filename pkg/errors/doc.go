// Package errors provides the error kinds of the relational core.
//
// Each error type includes a constructor, Error() method, and a type-checking
// helper using errors.As for proper error unwrapping.
//
// # Error Types Overview
//
//	┌──────────────────────────┬──────────────┬──────────────────────────────────────┐
//	│ Error Type               │ Raised at    │ Description                          │
//	├──────────────────────────┼──────────────┼──────────────────────────────────────┤
//	│ ConfigurationError       │ compile      │ Bad table/dialect/operation combo    │
//	│ ValidationFailedError    │ bind         │ Column value rejected by a validator │
//	│ OptimisticConflictError  │ execute      │ UPDATE matched no row                │
//	│ BackendExecutionError    │ execute      │ Any driver error, wrapped            │
//	│ ResourceNotFoundError    │ lookup       │ Unknown container or table           │
//	│ UnsupportedError         │ evaluate     │ Operation not defined for the value  │
//	└──────────────────────────┴──────────────┴──────────────────────────────────────┘
//
// # ConfigurationError
//
// Returned by the statement compiler when the table descriptor cannot be turned into
// a statement: no primary key for UPDATE/MERGE, an EAV domain on a dialect without
// procedural support, nothing to update.
//
//	if errors.IsConfigurationError(err) {
//	    // fix the table metadata, do not retry
//	}
//
// # ValidationFailedError
//
// Returned by Statement.Bind when a column validator rejects a value. Column holds the
// logical column name. The statement stays usable for the next row.
//
// # OptimisticConflictError
//
// Returned by Statement.Exec when an UPDATE affected zero rows. Reason tells whether
// the row is gone (ConflictRowDeleted) or its version moved (ConflictRowUpdated).
//
// # BackendExecutionError
//
// Wraps driver errors. Constraint is true when the driver reported a constraint
// violation; callers treat those as user-correctable.
//
//	var be *errors.BackendExecutionError
//	if stdErrors.As(err, &be) && be.Constraint {
//	    // duplicate key etc.
//	}
//
// # Type Checking Pattern
//
// All error types provide Is* helper functions that use errors.As:
//
//	wrapped := fmt.Errorf("row 12: %w", errors.NewValidationFailedError("Name", "value is required"))
//	errors.IsValidationFailedError(wrapped) // returns true
package errors
