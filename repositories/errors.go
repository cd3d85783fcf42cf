package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrKind is the closed set of failure categories the storage layer reports.
// Callers switch on the kind instead of matching driver error strings.
type ErrKind int

const (
	ErrKindUnknown ErrKind = iota
	ErrKindNotFound
	ErrKindTableMissing
	ErrKindConflict
	ErrKindUnavailable
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindTableMissing:
		return "table_missing"
	case ErrKindConflict:
		return "conflict"
	case ErrKindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

type StorageError struct {
	Kind ErrKind
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// KindOf extracts the storage error kind, ErrKindUnknown for foreign errors.
func KindOf(err error) ErrKind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrKindUnknown
}

func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &StorageError{Kind: ErrKindNotFound, Err: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01":
			return &StorageError{Kind: ErrKindTableMissing, Err: err}
		case "23505":
			return &StorageError{Kind: ErrKindConflict, Err: err}
		}
		switch pgErr.Code[:2] {
		case "08", "57":
			return &StorageError{Kind: ErrKindUnavailable, Err: err}
		}
		return &StorageError{Kind: ErrKindUnknown, Err: err}
	}

	// anything without a server error code is treated as the service
	// being unreachable
	return &StorageError{Kind: ErrKindUnavailable, Err: err}
}
