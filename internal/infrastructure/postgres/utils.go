package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Envois-api/internal/domain"
)

// Querier lo que los repositorios necesitan de un pool o de una tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation 23503: fila referenciada (RESTRICT) o referencia inexistente.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// writeErr traduce errores del driver a errores de dominio.
func writeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func execSQL(ctx context.Context, q Querier, op string, b squirrel.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, writeErr(op, err)
	}
	return tag.RowsAffected(), nil
}

// execOne falla con ErrNotFound si la sentencia no afectó ninguna fila.
func execOne(ctx context.Context, q Querier, op string, b squirrel.Sqlizer) error {
	n, err := execSQL(ctx, q, op, b)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// getOne escanea una fila en dst; found=false si no hay filas.
func getOne(ctx context.Context, q Querier, op string, dst any, b squirrel.Sqlizer) (bool, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s: %w", op, err)
	}
	if err := pgxscan.Get(ctx, q, dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func selectAll(ctx context.Context, q Querier, op string, dst any, b squirrel.Sqlizer) error {
	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	if err := pgxscan.Select(ctx, q, dst, sql, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func countSQL(ctx context.Context, q Querier, op string, b squirrel.SelectBuilder) (int, error) {
	var n int
	if _, err := getOne(ctx, q, op, &n, b); err != nil {
		return 0, err
	}
	return n, nil
}

// nullString mapea "" a NULL en columnas de referencia opcionales.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
