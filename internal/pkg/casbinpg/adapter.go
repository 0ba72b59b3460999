// Package casbinpg persists Casbin policies in PostgreSQL through pgx.
package casbinpg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	tableName = "casbin_rule"
	ruleWidth = 6
)

// ErrEmptyRule is returned when a policy rule has no values.
var ErrEmptyRule = errors.New("casbinpg: empty policy rule")

// Querier defines the pgx operations the adapter needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Adapter stores Casbin policies in a casbin_rule table.
type Adapter struct {
	db Querier
}

var (
	_ persist.Adapter      = (*Adapter)(nil)
	_ persist.BatchAdapter = (*Adapter)(nil)
)

// NewAdapter constructs a pgx-backed Casbin adapter. The casbin_rule
// table is created by migrations, not by the adapter.
func NewAdapter(db Querier) *Adapter {
	return &Adapter{db: db}
}

// LoadPolicy loads all policy rules into the model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	ctx := context.Background()

	cols := valueColumns()
	rows, err := a.db.Query(ctx, "select ptype, "+strings.Join(cols, ", ")+" from "+tableName)
	if err != nil {
		return fmt.Errorf("casbinpg: load policy: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		scanned := make([]sql.NullString, ruleWidth+1)
		dest := make([]any, len(scanned))
		for i := range scanned {
			dest[i] = &scanned[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("casbinpg: scan policy row: %w", err)
		}

		line := make([]string, 0, len(scanned))
		for _, v := range scanned {
			if !v.Valid || v.String == "" {
				break
			}
			line = append(line, v.String)
		}
		if len(line) == 0 {
			continue
		}
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SavePolicy replaces all stored rules with the model contents.
func (a *Adapter) SavePolicy(m model.Model) error {
	ctx := context.Background()

	if _, err := a.db.Exec(ctx, "truncate table "+tableName+" restart identity"); err != nil {
		return fmt.Errorf("casbinpg: save policy: %w", err)
	}

	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				if err := a.insert(ctx, ptype, rule); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// AddPolicy adds a single policy rule.
func (a *Adapter) AddPolicy(_ string, ptype string, rule []string) error {
	return a.insert(context.Background(), ptype, rule)
}

// AddPolicies adds multiple policy rules.
func (a *Adapter) AddPolicies(_ string, ptype string, rules [][]string) error {
	ctx := context.Background()
	for _, rule := range rules {
		if err := a.insert(ctx, ptype, rule); err != nil {
			return err
		}
	}
	return nil
}

// RemovePolicy removes a single policy rule.
func (a *Adapter) RemovePolicy(_ string, ptype string, rule []string) error {
	return a.remove(context.Background(), ptype, rule)
}

// RemovePolicies removes multiple policy rules.
func (a *Adapter) RemovePolicies(_ string, ptype string, rules [][]string) error {
	ctx := context.Background()
	for _, rule := range rules {
		if err := a.remove(ctx, ptype, rule); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFilteredPolicy removes rules matching the field filter.
func (a *Adapter) RemoveFilteredPolicy(_ string, ptype string, fieldIndex int, fieldValues ...string) error {
	ctx := context.Background()

	conditions := []string{"ptype = $1"}
	args := []any{ptype}
	for i, v := range fieldValues {
		if v == "" {
			continue
		}
		args = append(args, v)
		conditions = append(conditions, "v"+strconv.Itoa(fieldIndex+i)+" = $"+strconv.Itoa(len(args)))
	}

	query := "delete from " + tableName + " where " + strings.Join(conditions, " and ")
	if _, err := a.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("casbinpg: remove filtered policy: %w", err)
	}
	return nil
}

func (a *Adapter) insert(ctx context.Context, ptype string, rule []string) error {
	if len(rule) == 0 {
		return ErrEmptyRule
	}

	cols := valueColumns()
	placeholders := make([]string, 0, ruleWidth+1)
	for i := range ruleWidth + 1 {
		placeholders = append(placeholders, "$"+strconv.Itoa(i+1))
	}

	query := "insert into " + tableName + " (ptype, " + strings.Join(cols, ", ") + ")" +
		" values (" + strings.Join(placeholders, ", ") + ")" +
		" on conflict (ptype, " + strings.Join(cols, ", ") + ") do nothing"

	if _, err := a.db.Exec(ctx, query, ruleArgs(ptype, rule)...); err != nil {
		return fmt.Errorf("casbinpg: insert policy: %w", err)
	}
	return nil
}

func (a *Adapter) remove(ctx context.Context, ptype string, rule []string) error {
	if len(rule) == 0 {
		return ErrEmptyRule
	}

	conditions := make([]string, 0, ruleWidth+1)
	conditions = append(conditions, "ptype = $1")
	for i := range ruleWidth {
		conditions = append(conditions, "v"+strconv.Itoa(i)+" = $"+strconv.Itoa(i+2))
	}

	query := "delete from " + tableName + " where " + strings.Join(conditions, " and ")
	if _, err := a.db.Exec(ctx, query, ruleArgs(ptype, rule)...); err != nil {
		return fmt.Errorf("casbinpg: remove policy: %w", err)
	}
	return nil
}

func valueColumns() []string {
	cols := make([]string, 0, ruleWidth)
	for i := range ruleWidth {
		cols = append(cols, "v"+strconv.Itoa(i))
	}
	return cols
}

// ruleArgs pads the rule to the table width so every column binds.
func ruleArgs(ptype string, rule []string) []any {
	args := make([]any, 0, ruleWidth+1)
	args = append(args, ptype)
	for i := range ruleWidth {
		if i < len(rule) {
			args = append(args, rule[i])
			continue
		}
		args = append(args, "")
	}
	return args
}
