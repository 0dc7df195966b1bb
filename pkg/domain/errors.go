package domain

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by every session operation attempted after Disconnect.
var ErrSessionClosed = errors.New("session is closed")

// ErrNotPersistent is the cause carried by errors raised against unmapped types.
var ErrNotPersistent = errors.New("not a persistent instance")

// ErrKeyNotFound is returned by clients when a key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// ErrEntityNotFound is returned when no record exists for an entity id.
var ErrEntityNotFound = errors.New("entity not found")

// ErrUnsupportedOperation is returned by key/value operations the backend cannot serve efficiently.
var ErrUnsupportedOperation = errors.New("operation not supported")

// ErrLockTimeout is the cause of a LockError when the lock is held elsewhere for too long.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// ErrLockingUnsupported is the cause of a LockError when the persister cannot lock.
var ErrLockingUnsupported = errors.New("persister does not support pessimistic locking")

// ErrReadInTransaction is returned when a read or a lock operation is attempted while commands are being queued.
var ErrReadInTransaction = errors.New("reads are not available inside a transaction")

// ErrTransactionActive is the cause of a TransactionCreationError when one is already open.
var ErrTransactionActive = errors.New("a transaction is already active")

// ErrTransactionClosed is returned when committing or rolling back a finished transaction.
var ErrTransactionClosed = errors.New("transaction already completed")

// ErrFinderArguments is returned when a finder receives the wrong number of arguments.
var ErrFinderArguments = errors.New("wrong number of finder arguments")

// ErrUnknownFinder is returned when no finder is registered for a method name.
var ErrUnknownFinder = errors.New("unknown finder method")

// NotPersistentEntityError reports a lookup against a type with no registered persister.
type NotPersistentEntityError struct {
	Entity string
	Method string
	Arg    any
}

func (e *NotPersistentEntityError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("cannot execute %s(%v): %s is %s", e.Method, e.Arg, e.Entity, ErrNotPersistent)
	}
	return fmt.Sprintf("%s is %s", e.Entity, ErrNotPersistent)
}

func (e *NotPersistentEntityError) Unwrap() error {
	return ErrNotPersistent
}

// LockError reports a failure to acquire a pessimistic lock.
// Target is a human readable description such as "key [42]" or "object [*app.User]".
type LockError struct {
	Target string
	Err    error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("cannot lock %s: %v", e.Target, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// TransactionCreationError reports that the backend refused to start a unit of work.
type TransactionCreationError struct {
	Message string
	Err     error
}

func (e *TransactionCreationError) Error() string {
	return "failed to create transaction: " + e.Message
}

func (e *TransactionCreationError) Unwrap() error {
	return e.Err
}
