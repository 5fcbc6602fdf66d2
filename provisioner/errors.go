package provisioner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danthegoodman1/tabled/utils"
	"github.com/mattn/go-sqlite3"
)

type (
	// Kind classifies provisioner failures for the transport layer. Every
	// kind is terminal: the provisioner never retries on behalf of the
	// caller.
	Kind uint8

	// Error is the single error surface of the provisioner. Err keeps the
	// native engine or pool error so its text is reportable unchanged.
	Error struct {
		Kind Kind
		Err  error
	}
)

const (
	// KindValidation means the table spec was rejected before any SQL ran.
	KindValidation Kind = iota + 1
	// KindPool means a pooled connection could not be acquired in time.
	KindPool
	// KindExecution means the engine rejected a statement.
	KindExecution
)

var (
	// ErrTableExists surfaces the engine's duplicate-table rejection, e.g.
	// when two creates race on one name and the loser hits the winner's
	// table.
	ErrTableExists = utils.PermError("table already exists")

	// ErrReservedColumnName rejects user columns that collide with the
	// injected id, created_at, and updated_at columns.
	ErrReservedColumnName = utils.PermError("column name is reserved for a system column")

	// ErrInvalidIdentifier rejects table and column names that are not
	// plain SQL identifiers.
	ErrInvalidIdentifier = utils.PermError("invalid identifier")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPool:
		return "pool"
	case KindExecution:
		return "execution"
	}
	return "unknown"
}

func (e *Error) Error() string {
	return e.Kind.String() + " error: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// classifyExec wraps a statement failure as KindExecution, tagging the
// engine's duplicate-table rejection so callers can tell a lost create race
// from any other failure. SQLite reports duplicates as a generic
// SQLITE_ERROR, so the message is the only discriminator.
func classifyExec(err error) *Error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrError {
		msg := serr.Error()
		if strings.HasPrefix(msg, "table") && strings.Contains(msg, "already exists") {
			return newError(KindExecution, fmt.Errorf("%w: %w", ErrTableExists, err))
		}
	}
	return newError(KindExecution, err)
}
