package schema

import (
	"fmt"
	"strings"
)

// Issue is a single finding from a validation pass.
type Issue struct {
	Table    string
	Column   string
	Message  string
	Breaking bool
}

func (i *Issue) String() string {
	if i.Column != "" {
		return fmt.Sprintf("%s.%s: %s", i.Table, i.Column, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Table, i.Message)
}

// Report collects validation findings. Errors block a change unless
// explicitly allowed; warnings flag operations that can fail on
// populated tables.
type Report struct {
	Errors   []*Issue
	Warnings []*Issue
}

// OK reports whether the pass found no errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// HasBreaking reports whether any finding loses data or rejects
// existing rows.
func (r *Report) HasBreaking() bool {
	for _, i := range r.Errors {
		if i.Breaking {
			return true
		}
	}
	for _, i := range r.Warnings {
		if i.Breaking {
			return true
		}
	}
	return false
}

func (r *Report) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("errors:\n")
		for _, i := range r.Errors {
			writeIssue(&sb, i)
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("warnings:\n")
		for _, i := range r.Warnings {
			writeIssue(&sb, i)
		}
	}
	if sb.Len() == 0 {
		return "no issues found"
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func writeIssue(sb *strings.Builder, i *Issue) {
	sb.WriteString("  - ")
	sb.WriteString(i.String())
	if i.Breaking {
		sb.WriteString(" [breaking]")
	}
	sb.WriteString("\n")
}

// DiffOption downgrades an individual diff check from error to
// warning.
type DiffOption func(*diffConfig)

type diffConfig struct {
	allowDropTable     bool
	allowDropColumn    bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

// AllowDropTable accepts tables disappearing from the desired schema.
func AllowDropTable() DiffOption {
	return func(c *diffConfig) { c.allowDropTable = true }
}

// AllowDropColumn accepts columns disappearing from a table.
func AllowDropColumn() DiffOption {
	return func(c *diffConfig) { c.allowDropColumn = true }
}

// AllowDropIndex accepts indexed columns losing their index.
func AllowDropIndex() DiffOption {
	return func(c *diffConfig) { c.allowDropIndex = true }
}

// AllowNullToNotNull accepts nullable columns becoming NOT NULL.
func AllowNullToNotNull() DiffOption {
	return func(c *diffConfig) { c.allowNullToNotNull = true }
}

// ValidateDiff compares the deployed tables with the desired ones and
// reports the changes that would destroy data or fail against existing
// rows. Run it before applying a migration:
//
//	report := schema.ValidateDiff(current, desired)
//	if !report.OK() {
//		return fmt.Errorf("unsafe schema change:\n%s", report)
//	}
func ValidateDiff(current, desired []*Table, opts ...DiffOption) *Report {
	cfg := &diffConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	r := &Report{}
	currentTables := make(map[string]*Table, len(current))
	for _, t := range current {
		currentTables[t.Name] = t
	}
	desiredTables := make(map[string]*Table, len(desired))
	for _, t := range desired {
		desiredTables[t.Name] = t
	}
	for _, t := range current {
		if _, ok := desiredTables[t.Name]; !ok {
			r.add(cfg.allowDropTable, &Issue{
				Table:    t.Name,
				Message:  "table will be dropped",
				Breaking: true,
			})
		}
	}
	for _, want := range desired {
		have, ok := currentTables[want.Name]
		if !ok {
			continue // new table
		}
		diffTable(have, want, cfg, r)
	}
	return r
}

func (r *Report) add(allowed bool, i *Issue) {
	if allowed {
		r.Warnings = append(r.Warnings, i)
		return
	}
	r.Errors = append(r.Errors, i)
}

func (r *Report) warn(i *Issue) {
	r.Warnings = append(r.Warnings, i)
}

func diffTable(have, want *Table, cfg *diffConfig, r *Report) {
	haveCols := make(map[string]*Column)
	for _, c := range have.effectiveColumns() {
		haveCols[c.Name] = c
	}
	wantCols := make(map[string]*Column)
	for _, c := range want.effectiveColumns() {
		wantCols[c.Name] = c
	}
	for _, c := range have.effectiveColumns() {
		if _, ok := wantCols[c.Name]; !ok {
			r.add(cfg.allowDropColumn, &Issue{
				Table:    have.Name,
				Column:   c.Name,
				Message:  "column will be dropped",
				Breaking: true,
			})
		}
	}
	for _, c := range want.effectiveColumns() {
		prev, ok := haveCols[c.Name]
		if !ok {
			if !c.nullable && !c.hasDefault {
				r.warn(&Issue{
					Table:   have.Name,
					Column:  c.Name,
					Message: "new NOT NULL column without a default fails when the table has rows",
				})
			}
			continue
		}
		diffColumn(have.Name, prev, c, cfg, r)
	}
}

func diffColumn(table string, have, want *Column, cfg *diffConfig, r *Report) {
	if have.Type != want.Type {
		r.warn(&Issue{
			Table:   table,
			Column:  want.Name,
			Message: fmt.Sprintf("type changes from %s to %s", have.Type, want.Type),
		})
	}
	if have.nullable && !want.nullable {
		r.add(cfg.allowNullToNotNull, &Issue{
			Table:    table,
			Column:   want.Name,
			Message:  "NULL to NOT NULL fails when the column holds null values",
			Breaking: true,
		})
	}
	if have.maxLength > 0 && want.maxLength > 0 && want.maxLength < have.maxLength {
		r.warn(&Issue{
			Table:   table,
			Column:  want.Name,
			Message: fmt.Sprintf("length reduces from %d to %d and may truncate data", have.maxLength, want.maxLength),
		})
	}
	if !have.unique && want.unique {
		r.warn(&Issue{
			Table:   table,
			Column:  want.Name,
			Message: "adding UNIQUE fails when duplicate values exist",
		})
	}
	if have.indexed && !want.indexed {
		r.add(cfg.allowDropIndex, &Issue{
			Table:   table,
			Column:  want.Name,
			Message: "index will be dropped",
		})
	}
}

// ValidateTable checks a single definition for mistakes that render
// broken DDL.
func ValidateTable(t *Table) *Report {
	r := &Report{}
	cols := t.effectiveColumns()
	if len(cols) == 0 {
		r.Errors = append(r.Errors, &Issue{
			Table:   t.Name,
			Message: "table has no columns",
		})
		return r
	}
	seen := make(map[string]bool, len(cols))
	pk, serial := 0, 0
	for _, c := range cols {
		if seen[c.Name] {
			r.Errors = append(r.Errors, &Issue{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		seen[c.Name] = true
		if c.primaryKey {
			pk++
		}
		if c.autoIncrement {
			serial++
		}
	}
	if pk == 0 {
		r.Warnings = append(r.Warnings, &Issue{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}
	if serial > 1 {
		r.Errors = append(r.Errors, &Issue{
			Table:   t.Name,
			Message: "multiple auto increment columns",
		})
	}
	return r
}

// effectiveColumns is the declared column list plus the bookkeeping
// columns the rendered DDL appends for Timestamps and SoftDelete.
func (t *Table) effectiveColumns() []*Column {
	if !t.Timestamps && !t.SoftDelete {
		return t.Columns
	}
	cols := make([]*Column, 0, len(t.Columns)+3)
	cols = append(cols, t.Columns...)
	if t.Timestamps {
		cols = append(cols,
			&Column{Name: "created_at", Type: TypeTimestamp, hasDefault: true},
			&Column{Name: "updated_at", Type: TypeTimestamp, hasDefault: true},
		)
	}
	if t.SoftDelete {
		cols = append(cols, &Column{Name: "deleted_at", Type: TypeTimestamp, nullable: true})
	}
	return cols
}
