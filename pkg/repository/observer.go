package repository

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Operation describes one completed repository call.
type Operation struct {
	Table      string
	Name       string
	Duration   time.Duration
	Statements int
	SQL        string
	Args       []any
	Err        error
}

// Observer receives every completed Operation.
type Observer interface {
	Observe(ctx context.Context, op Operation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, op Operation)

func (f ObserverFunc) Observe(ctx context.Context, op Operation) {
	f(ctx, op)
}

// Observers fans an Operation out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(ctx context.Context, op Operation) {
		for _, o := range obs {
			if o != nil {
				o.Observe(ctx, op)
			}
		}
	})
}

type threshold struct {
	after time.Duration
	level slog.Level
	msg   string
	hint  string
}

var thresholds = []threshold{
	{5 * time.Second, slog.LevelError, "very slow database operation", "review the query plan with EXPLAIN ANALYZE and split the work into smaller batches"},
	{2 * time.Second, slog.LevelWarn, "slow database operation", "check that filtered and joined columns are indexed"},
	{time.Second, slog.LevelWarn, "slow database operation", "consider narrowing the selected columns or the page size"},
}

// LogObserver logs failed operations and operations slower than one second.
// In development, operations slower than 500ms are logged at debug level.
type LogObserver struct {
	logger      *slog.Logger
	development bool
}

func NewLogObserver(logger *slog.Logger, development bool) *LogObserver {
	return &LogObserver{
		logger:      logger.With("system", "repository"),
		development: development,
	}
}

func (o *LogObserver) Observe(ctx context.Context, op Operation) {
	attrs := []any{
		"table", op.Table,
		"operation", op.Name,
		"duration_ms", op.Duration.Milliseconds(),
		"statements", op.Statements,
	}

	if op.Err != nil {
		attrs = append(attrs, "sql", op.SQL, "args", SanitizeArgs(op.Args), "error", op.Err, "hint", hintFor(op.Err))
		o.logger.ErrorContext(ctx, "database operation failed", attrs...)
		return
	}

	for _, t := range thresholds {
		if op.Duration > t.after {
			attrs = append(attrs, "sql", op.SQL, "args", SanitizeArgs(op.Args), "hint", t.hint)
			o.logger.Log(ctx, t.level, t.msg, attrs...)
			return
		}
	}

	if o.development && op.Duration > 500*time.Millisecond {
		attrs = append(attrs, "sql", op.SQL)
		o.logger.DebugContext(ctx, "database operation over 500ms", attrs...)
	}
}

func hintFor(err error) string {
	db, ok := Classify(err).(*DBError)
	if !ok {
		return "inspect the wrapped error"
	}
	switch db.Kind {
	case KindUniqueViolation:
		return "check for an existing record before inserting or use an upsert"
	case KindForeignKeyViolation:
		return "make sure the referenced record exists and is not deleted"
	case KindNotNullViolation:
		return "provide a value for " + or(db.Column, "the column")
	case KindUndefinedColumn, KindUndefinedTable:
		return "run pending migrations"
	case KindPoolExhausted:
		return "raise max_conns or reduce concurrent long-running queries"
	case KindTimeout:
		return "raise statement_timeout or narrow the query"
	default:
		return "inspect the PostgreSQL error code " + db.Code
	}
}

var sensitive = regexp.MustCompile(`(?i)password|token|secret|key`)

// SanitizeArgs masks statement arguments before they reach the logs.
// Strings that look like emails, long strings, and strings mentioning
// credentials are replaced by placeholders; collections are summarized.
func SanitizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = sanitize(i, arg)
	}
	return out
}

func sanitize(i int, arg any) any {
	if s, ok := arg.(string); ok {
		if strings.Contains(s, "@") || len(s) > 50 || sensitive.MatchString(s) {
			return fmt.Sprintf("[SANITIZED_STRING_%d]", i)
		}
		return s
	}

	if arg == nil {
		return nil
	}

	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return fmt.Sprintf("[BYTES_%d]", v.Len())
		}
		return fmt.Sprintf("[ARRAY_%d_ITEMS]", v.Len())
	case reflect.Map:
		return fmt.Sprintf("[OBJECT_%d_KEYS]", v.Len())
	}

	return arg
}

// trace counts statements issued through a Querier and keeps the last one.
type trace struct {
	q     Querier
	op    *Operation
	began time.Time
}

func (t *trace) record(sql string, args []any) {
	t.op.Statements++
	t.op.SQL = sql
	t.op.Args = args
}

func (t *trace) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.record(sql, args)
	return t.q.Exec(ctx, sql, args...)
}

func (t *trace) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	t.record(sql, args)
	return t.q.Query(ctx, sql, args...)
}

func (t *trace) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	t.record(sql, args)
	return t.q.QueryRow(ctx, sql, args...)
}
