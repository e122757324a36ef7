package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCollection is returned by [Command] terminals when no collection
	// was selected.
	ErrNoCollection = errors.New("no collection selected")
	// ErrNotConnected is returned when the driver is used before Connect.
	ErrNotConnected = errors.New("driver not connected")
	// ErrUnknownScope is returned when applying a scope name that is not
	// declared.
	ErrUnknownScope = errors.New("unknown scope")
	// ErrUnknownRelation is returned when resolving a relation name that is
	// not declared.
	ErrUnknownRelation = errors.New("unknown relation")
	// ErrUnknownSubDocument is returned when accessing a sub-document that
	// is not declared.
	ErrUnknownSubDocument = errors.New("unknown sub-document")
	// ErrInvalidSubDocumentValue is returned when assigning a value of an
	// unsupported type to a sub-document.
	ErrInvalidSubDocumentValue = errors.New("invalid sub-document value")
	// ErrNotRegistered is returned when a model instance was not created
	// through a registry.
	ErrNotRegistered = errors.New("model not bound to a registry")
	// ErrInvalidCriteria is returned when a criteria argument is neither a
	// Criteria nor a condition document.
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrCursorClosed is returned when using a closed cursor.
	ErrCursorClosed = errors.New("cursor is closed")
	// ErrCurrentBeforeNext is returned when reading a cursor before
	// calling Next.
	ErrCurrentBeforeNext = errors.New("current called before next")
	// ErrTargetNil is returned when the passed target, which should be a
	// pointer, is passed as a nil value.
	ErrTargetNil = errors.New("target interface is nil")
	// ErrNonPointer is returned when the decode target is not a pointer.
	ErrNonPointer = errors.New("target is not a pointer")
	// ErrConstraintViolated is returned by an [Index] when a unique key is
	// duplicated.
	ErrConstraintViolated = errors.New("unique constraint violated")
	// ErrCannotModifyID is returned when an update tries to change a
	// document primary key.
	ErrCannotModifyID = errors.New("cannot modify _id")
)

// ConnectionError is returned when the store cannot be reached or
// authentication fails.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %q: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// InvalidStateError is returned when an operation is not allowed in the
// current record state, like inserting a record that is not new.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// MissingKeyError is returned when an operation needs a primary key that is
// not set.
type MissingKeyError struct {
	Op  string
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: primary key %q is not set", e.Op, e.Key)
}

// EmptyOperationError is returned when a write has nothing to write. It is
// always returned before any I/O.
type EmptyOperationError struct {
	Op string
}

func (e *EmptyOperationError) Error() string {
	return fmt.Sprintf("%s: nothing to write", e.Op)
}

// PersistenceError wraps a failure reported by the store or by the round
// trip to it.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s on %q failed: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IllegalStateError is returned when a cursor is reconfigured after the
// iteration started.
type IllegalStateError struct {
	Op string
}

func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("cannot call %s after iteration started", e.Op)
}

// ErrDecode is returned when a document cannot be decoded into a target.
type ErrDecode struct {
	Source any
	Target any
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}

// ErrFieldType is returned by a modifier when a field has a type that does
// not support the operator.
type ErrFieldType struct {
	Field    string
	Operator string
	Actual   any
}

func (e ErrFieldType) Error() string {
	return fmt.Sprintf("cannot apply %s to field %q of type %T", e.Operator, e.Field, e.Actual)
}

// ErrUnknownOperator is returned for query or update operators that are not
// supported.
type ErrUnknownOperator struct {
	Operator string
}

func (e ErrUnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Operator)
}

// ErrCannotCompare is returned when two values cannot be ordered.
type ErrCannotCompare struct {
	A, B any
}

func (e ErrCannotCompare) Error() string {
	return fmt.Sprintf("cannot compare unexpected types %T and %T", e.A, e.B)
}

// ErrFlushToStorage is returned when the datafile cannot be synced or
// closed.
type ErrFlushToStorage struct {
	ErrorOnFsync error
	ErrorOnClose error
}

func (e ErrFlushToStorage) Error() string {
	var err error
	if e.ErrorOnFsync != nil {
		err = e.ErrorOnFsync
	} else {
		err = e.ErrorOnClose
	}
	return fmt.Sprint("storage flush error: ", err.Error())
}

// ErrDatafileLocked is returned when another process holds the datafile.
type ErrDatafileLocked struct {
	Name string
}

func (e ErrDatafileLocked) Error() string {
	return fmt.Sprintf("datafile %q is locked by another process", e.Name)
}
