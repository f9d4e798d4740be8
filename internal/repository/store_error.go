package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrorKind classifies a storage failure so callers can decide retry
// policy without inspecting error text.
type ErrorKind int

const (
	// KindTransient covers connectivity problems, timeouts and any
	// other failure that a redelivery of the same payload might not
	// reproduce.
	KindTransient ErrorKind = iota
	// KindDataViolation covers rejections of the data itself: value
	// too long, malformed date, constraint or null violations.
	// Redelivering the same payload will fail the same way.
	KindDataViolation
)

// StoreError wraps a storage failure with an explicit kind tag.
type StoreError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsDataViolation reports whether err carries a data-violation store
// error anywhere in its chain.
func IsDataViolation(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.Kind == KindDataViolation
}

// IsNotFound reports whether err is a record-not-found lookup result.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Kind: classifyKind(err), Err: err}
}

// classifyKind maps postgres SQLSTATE classes onto error kinds:
// class 22 (data exception) and class 23 (integrity constraint
// violation) are data violations, everything else is transient.
func classifyKind(err error) ErrorKind {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23":
			return KindDataViolation
		}
	}

	if errors.Is(err, gorm.ErrInvalidData) || errors.Is(err, gorm.ErrInvalidValue) {
		return KindDataViolation
	}

	return KindTransient
}
