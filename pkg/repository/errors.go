package repository

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/tollgate/pkg/apperr"
)

var (
	// ErrNotFound reports that no live row matched an update, restore, or bulk update.
	ErrNotFound = apperr.NotFound("RecordNotFound", "Record not found")
	// ErrInvalidField reports a field name that is not a column of the table.
	ErrInvalidField = apperr.BadRequest("InvalidField", "Invalid field")
	// ErrInvalidRelation reports a relation name without a registered loader.
	ErrInvalidRelation = apperr.BadRequest("InvalidRelation", "Invalid relation")
	// ErrUnscopedWrite rejects predicate writes without a predicate.
	ErrUnscopedWrite = errors.New("refusing write without a where clause")
)

// Kind classifies PostgreSQL failures the application reacts to.
type Kind string

const (
	KindUniqueViolation     Kind = "unique_violation"
	KindForeignKeyViolation Kind = "foreign_key_violation"
	KindNotNullViolation    Kind = "not_null_violation"
	KindUndefinedColumn     Kind = "undefined_column"
	KindUndefinedTable      Kind = "undefined_table"
	KindPoolExhausted       Kind = "pool_exhausted"
	KindTimeout             Kind = "query_timeout"
	KindUnknown             Kind = "unknown"
)

var kinds = map[string]Kind{
	"23505": KindUniqueViolation,
	"23503": KindForeignKeyViolation,
	"23502": KindNotNullViolation,
	"42703": KindUndefinedColumn,
	"42P01": KindUndefinedTable,
	"53300": KindPoolExhausted,
	"57014": KindTimeout,
}

// DBError is a classified PostgreSQL error.
type DBError struct {
	Kind       Kind
	Message    string
	Code       string
	Detail     string
	Constraint string
	Table      string
	Column     string
	Err        error
}

func (e *DBError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DBError) Unwrap() error {
	return e.Err
}

func (e *DBError) ErrorName() string {
	return "DatabaseError"
}

// PublicMessage is the message safe to return to clients.
func (e *DBError) PublicMessage() string {
	return e.Message
}

func (e *DBError) StatusCode() int {
	switch e.Kind {
	case KindUniqueViolation, KindForeignKeyViolation:
		return http.StatusConflict
	case KindNotNullViolation:
		return http.StatusBadRequest
	case KindPoolExhausted:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Classify converts driver errors into *DBError.
// Errors that are not PostgreSQL errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	kind, ok := kinds[pgErr.Code]
	if !ok {
		kind = KindUnknown
	}

	return &DBError{
		Kind:       kind,
		Message:    describe(kind, pgErr),
		Code:       pgErr.Code,
		Detail:     pgErr.Detail,
		Constraint: pgErr.ConstraintName,
		Table:      pgErr.TableName,
		Column:     pgErr.ColumnName,
		Err:        err,
	}
}

func describe(kind Kind, pgErr *pgconn.PgError) string {
	switch kind {
	case KindUniqueViolation:
		return "Duplicate entry: " + or(pgErr.Detail, "Record already exists")
	case KindForeignKeyViolation:
		return "Foreign key constraint violation: " + or(pgErr.Detail, "Referenced record does not exist")
	case KindNotNullViolation:
		return fmt.Sprintf("Required field missing: %s cannot be null", or(pgErr.ColumnName, "column"))
	case KindUndefinedColumn:
		return "Invalid column: " + pgErr.Message
	case KindUndefinedTable:
		return "Table not found: " + pgErr.Message
	case KindPoolExhausted:
		return "Database connection pool exhausted. Please try again."
	case KindTimeout:
		return "Query was canceled due to timeout. Please try again with a narrower request."
	default:
		return "Database error"
	}
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// MapError translates database errors to domain errors.
// It maps pgx.ErrNoRows to notFoundErr and unique violations to duplicateErr.
// Other errors are returned classified.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return notFoundErr
	}

	err = Classify(err)

	var dbErr *DBError
	if errors.As(err, &dbErr) && dbErr.Kind == KindUniqueViolation {
		return duplicateErr
	}

	return err
}
