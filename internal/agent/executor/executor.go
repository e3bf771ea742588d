// Package executor runs validated statements against the resolved logical
// database under hard resource limits. Statements arrive here only after
// passing the sqlguard checks; the executor enforces the timeout budget and
// the row ceiling, never the safety rules.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	errx "github.com/SalvadorCordova96/ProJect-Medical/internal/core/error"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

const maxUserErrorLen = 100

// Querier is the narrow slice of pgxpool.Pool the executor needs. Kept small
// so tests can substitute a fake backend per logical database.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgExecutor executes statements against per-database pgx pools.
type PgExecutor struct {
	pools      map[model.DatabaseTarget]Querier
	maxResults int
	timeout    time.Duration
	logQueries bool
}

// New builds an executor over the given pools. MaxResults and the timeout
// come from the agent configuration and are hard limits: a statement that
// would exceed them is truncated or aborted.
func New(pools map[model.DatabaseTarget]Querier, cfg model.AgentConfig) *PgExecutor {
	return &PgExecutor{
		pools:      pools,
		maxResults: cfg.MaxResults,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		logQueries: cfg.LogQueries,
	}
}

// Execute runs one validated statement. Parameters are always bound, never
// interpolated. Failures come back as a typed result; the full error detail
// goes to the internal log channel only.
func (e *PgExecutor) Execute(ctx context.Context, q *model.SQLQuery) *model.ExecutionResult {
	start := time.Now()

	pool, ok := e.pools[q.TargetDB]
	if !ok || pool == nil {
		logx.Error().Str("target", string(q.TargetDB)).Msg("No pool configured for target database")
		return failure(start, model.ErrorSQL, "base de datos no disponible")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.logQueries {
		logx.Info().
			Str("target", string(q.TargetDB)).
			Str("query", truncate(q.Query, 200)).
			Msg("Executing query")
	}

	var args []any
	if len(q.Params) > 0 {
		args = append(args, pgx.NamedArgs(q.Params))
	}

	rows, err := pool.Query(ctx, q.Query, args...)
	if err != nil {
		return e.classifyFailure(start, q, err)
	}
	defer rows.Close()

	var columns []string
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, fd.Name)
	}

	data := make([]map[string]any, 0, 16)
	truncated := false
	for rows.Next() {
		if len(data) >= e.maxResults {
			truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return e.classifyFailure(start, q, err)
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(values) {
				record[col] = values[i]
			}
		}
		data = append(data, record)
	}
	if !truncated {
		if err := rows.Err(); err != nil {
			return e.classifyFailure(start, q, err)
		}
	}

	elapsed := elapsedMS(start)
	logx.Info().
		Int("rows", len(data)).
		Float64("elapsed_ms", elapsed).
		Bool("truncated", truncated).
		Msg("Query succeeded")

	return &model.ExecutionResult{
		Success:         true,
		Rows:            data,
		RowCount:        len(data),
		Columns:         columns,
		ExecutionTimeMS: elapsed,
	}
}

var _ model.QueryExecutor = (*PgExecutor)(nil)

// classifyFailure maps a backend error into the taxonomy the retry routing
// understands. Connection-level problems and timeouts are retryable; the
// user-facing text never carries the raw error. The log side carries the
// unified errx wrapper so status and safe message land in the diagnostics.
func (e *PgExecutor) classifyFailure(start time.Time, q *model.SQLQuery, err error) *model.ExecutionResult {
	appErr := errx.WrapDatabase(err)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		logx.Error().Err(appErr).Str("target", string(q.TargetDB)).Msg("Query timed out")
		return failure(start, model.ErrorTimeout, "la consulta excedió el tiempo límite")

	case isConnectionError(err):
		logx.Error().Err(appErr).Str("target", string(q.TargetDB)).Msg("Database connection failed")
		return failure(start, model.ErrorSQL, "error de conexión a la base de datos")

	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			logx.Error().
				Str("code", pgErr.Code).
				Str("detail", pgErr.Detail).
				Err(appErr).
				Msg("SQL execution failed")
			return failure(start, model.ErrorSQL, "error en la consulta: "+truncate(pgErr.Message, maxUserErrorLen))
		}
		logx.Error().Err(appErr).Msg("Unexpected query failure")
		return failure(start, model.ErrorInternal, "error interno al procesar la consulta")
	}
}

func isConnectionError(err error) bool {
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func failure(start time.Time, kind model.ErrorKind, message string) *model.ExecutionResult {
	return &model.ExecutionResult{
		Success:         false,
		ErrorMessage:    message,
		ErrorKind:       kind,
		ExecutionTimeMS: elapsedMS(start),
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
