package db

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hpungsan/shutter/internal/errors"
)

// identRegex limits table and column names to plain SQL identifiers.
var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Condition is one WHERE predicate: Column Op Value.
type Condition struct {
	Column string
	Op     string
	Value  any
}

// Eq is shorthand for an equality condition.
func Eq(column string, value any) Condition {
	return Condition{Column: column, Op: "=", Value: value}
}

var allowedOps = map[string]bool{
	"=": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true,
}

// Insert writes one row and returns the driver's last insert id.
// Columns are emitted in sorted order so the statement text is stable.
func Insert(ctx context.Context, db *sql.DB, table string, fields map[string]any) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, errors.NewInvalidRequest("insert requires at least one field")
	}

	cols := sortedKeys(fields)
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		if err := checkIdent(c); err != nil {
			return 0, err
		}
		args = append(args, fields[c])
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return id, nil
}

// Update applies fields to every row matching all conds.
// Matching zero rows is not an error. At least one condition is required.
func Update(ctx context.Context, db *sql.DB, table string, fields map[string]any, conds ...Condition) error {
	_, err := updateRows(ctx, db, table, fields, conds)
	return err
}

// updateRows is Update that also reports the affected row count.
func updateRows(ctx context.Context, db *sql.DB, table string, fields map[string]any, conds []Condition) (int64, error) {
	if err := checkIdent(table); err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, errors.NewInvalidRequest("update requires at least one field")
	}
	if len(conds) == 0 {
		return 0, errors.NewInvalidRequest("update requires a condition")
	}

	cols := sortedKeys(fields)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+len(conds))
	for _, c := range cols {
		if err := checkIdent(c); err != nil {
			return 0, err
		}
		sets = append(sets, c+" = ?")
		args = append(args, fields[c])
	}

	where := make([]string, 0, len(conds))
	for _, cond := range conds {
		if err := checkIdent(cond.Column); err != nil {
			return 0, err
		}
		if !allowedOps[cond.Op] {
			return 0, errors.NewInvalidRequest(fmt.Sprintf("unsupported operator %q", cond.Op))
		}
		where = append(where, fmt.Sprintf("%s %s ?", cond.Column, cond.Op))
		args = append(args, cond.Value)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), strings.Join(where, " AND "))
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

func checkIdent(name string) error {
	if !identRegex.MatchString(name) {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid identifier %q", name))
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
