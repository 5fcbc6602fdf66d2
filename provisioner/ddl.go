package provisioner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/danthegoodman1/tabled/schema"
)

// identRe matches the identifiers allowed into DDL. SQLite would accept
// nearly anything once quoted, but names also land in trigger names and
// error messages, so they stay conservative.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidIdent reports whether name is acceptable as a table or column
// identifier.
func IsValidIdent(name string) bool {
	return identRe.MatchString(name)
}

func validateIdent(what, name string) error {
	if name == "" {
		return fmt.Errorf("%s is required", what)
	}
	if !IsValidIdent(name) {
		return fmt.Errorf("%s %q: %w", what, name, ErrInvalidIdentifier)
	}
	return nil
}

func (p *Provisioner) validateTable(t schema.Table) error {
	if err := validateIdent("table name", t.Name); err != nil {
		return err
	}
	for _, col := range t.Columns {
		if err := validateIdent("column name", col.Name); err != nil {
			return err
		}
		// SQLite identifiers are case-insensitive, so AGE and age collide.
		if _, taken := p.reserved[strings.ToLower(col.Name)]; taken {
			return fmt.Errorf("column %q: %w", col.Name, ErrReservedColumnName)
		}
		if !col.Type.Valid() {
			return fmt.Errorf("column %q: unknown data type %q", col.Name, col.Type)
		}
	}
	return nil
}

func createTableSQL(name string, cols []schema.Column) string {
	frags := make([]string, len(cols))
	for i, c := range cols {
		frags[i] = c.DefinitionSQL()
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", schema.QuoteIdent(name), strings.Join(frags, ", "))
}

// TriggerName returns the deterministic name of the updated_at maintenance
// trigger for a table.
func TriggerName(table string) string {
	return "update_" + table + "_updated_at"
}

// updateTriggerSQL emulates on-update column maintenance, which SQLite lacks
// natively: after any row update, stamp that row's updated_at. Connections
// run with recursive_triggers off, so the trigger's own UPDATE cannot
// re-fire it.
func updateTriggerSQL(table string) string {
	qt := schema.QuoteIdent(table)
	return fmt.Sprintf(
		`CREATE TRIGGER %s AFTER UPDATE ON %s FOR EACH ROW BEGIN UPDATE %s SET "updated_at" = CURRENT_TIMESTAMP WHERE "id" = NEW."id"; END`,
		schema.QuoteIdent(TriggerName(table)), qt, qt,
	)
}
