// Package provisioner turns table specs into SQLite DDL and executes it
// against the shared pool: CREATE TABLE plus the updated_at maintenance
// trigger in one transaction, DROP TABLE as a single statement. Every
// failure comes back as a classified *Error and is terminal.
package provisioner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danthegoodman1/tabled/schema"
)

type (
	// Provisioner executes table DDL against the shared pool. The injected
	// system-column definitions are built once at construction and never
	// mutated, so one value serves every request; per call it only formats
	// strings.
	Provisioner struct {
		db             *sql.DB
		acquireTimeout time.Duration

		idColumn    schema.Column
		tailColumns []schema.Column
		reserved    map[string]struct{}
	}

	// Config carries the tunables main wires in from the environment.
	Config struct {
		// AcquireTimeout bounds how long a call waits for a pooled
		// connection before failing with KindPool. Zero means
		// DefaultAcquireTimeout.
		AcquireTimeout time.Duration
	}

	// ColumnInfo is one row of the engine's table_info catalog read. It
	// reports what the engine stores, not the original request, so flags
	// the catalog cannot answer (like AUTOINCREMENT) are absent.
	ColumnInfo struct {
		Name       string  `json:"name"`
		Type       string  `json:"type"`
		NotNull    bool    `json:"not_null"`
		PrimaryKey bool    `json:"primary_key"`
		Default    *string `json:"default"`
	}
)

const DefaultAcquireTimeout = 5 * time.Second

// New builds a Provisioner around an open pool.
func New(db *sql.DB, cfg Config) *Provisioner {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = DefaultAcquireTimeout
	}
	p := &Provisioner{
		db:             db,
		acquireTimeout: cfg.AcquireTimeout,
		idColumn: schema.Column{
			Name:          "id",
			Type:          schema.TypeInteger,
			PrimaryKey:    true,
			AutoIncrement: true,
			Unique:        true,
			NotNull:       true,
		},
		tailColumns: []schema.Column{
			{Name: "created_at", Type: schema.TypeTimestamp, NotNull: true, Default: "CURRENT_TIMESTAMP"},
			{Name: "updated_at", Type: schema.TypeTimestamp, NotNull: true, Default: "CURRENT_TIMESTAMP"},
		},
	}
	p.reserved = make(map[string]struct{}, 3)
	p.reserved[p.idColumn.Name] = struct{}{}
	for _, c := range p.tailColumns {
		p.reserved[c.Name] = struct{}{}
	}
	return p
}

// columns returns the effective column list: id, the user's columns in
// request order, then created_at and updated_at. This is both the physical
// order of the created table and the order of the response payload.
func (p *Provisioner) columns(user []schema.Column) []schema.Column {
	full := make([]schema.Column, 0, len(user)+3)
	full = append(full, p.idColumn)
	full = append(full, user...)
	full = append(full, p.tailColumns...)
	return full
}

// acquire checks a connection out of the pool, waiting at most
// acquireTimeout. Exhaustion and open failures both classify as KindPool.
func (p *Provisioner) acquire(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()
	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		return nil, newError(KindPool, fmt.Errorf("error acquiring connection: %w", err))
	}
	return conn, nil
}

// CreateTable provisions a new table and its updated_at trigger in one
// transaction, and returns the materialized table with the system columns
// the caller did not spell out. On any failure the database keeps its
// pre-call state.
func (p *Provisioner) CreateTable(ctx context.Context, t schema.Table) (schema.Table, error) {
	if err := p.validateTable(t); err != nil {
		return schema.Table{}, newError(KindValidation, err)
	}

	cols := p.columns(t.Columns)
	createStmt := createTableSQL(t.Name, cols)
	triggerStmt := updateTriggerSQL(t.Name)

	conn, err := p.acquire(ctx)
	if err != nil {
		return schema.Table{}, err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return schema.Table{}, newError(KindExecution, fmt.Errorf("error in BeginTx: %w", err))
	}

	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		_ = tx.Rollback()
		return schema.Table{}, classifyExec(err)
	}
	if _, err := tx.ExecContext(ctx, triggerStmt); err != nil {
		_ = tx.Rollback()
		return schema.Table{}, classifyExec(err)
	}
	if err := tx.Commit(); err != nil {
		return schema.Table{}, newError(KindExecution, fmt.Errorf("error in Commit: %w", err))
	}

	return schema.Table{Name: t.Name, Columns: cols}, nil
}

// DropTable removes a table as a single statement. SQLite drops the table's
// triggers with it, so the updated_at trigger needs no separate cleanup.
// Dropping a missing table is an execution error, not a no-op.
func (p *Provisioner) DropTable(ctx context.Context, name string) error {
	if err := validateIdent("table name", name); err != nil {
		return newError(KindValidation, err)
	}

	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DROP TABLE "+schema.QuoteIdent(name)); err != nil {
		return classifyExec(err)
	}
	return nil
}

// TableExists reports whether a table of this name is in the engine catalog.
func (p *Provisioner) TableExists(ctx context.Context, name string) (bool, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	var exists bool
	err = conn.QueryRowContext(ctx,
		"SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = ?",
		name).Scan(&exists)
	if err != nil {
		return false, newError(KindExecution, fmt.Errorf("error checking sqlite_master: %w", err))
	}
	return exists, nil
}

// TableColumns reads a table's live column layout back out of the engine
// catalog, in physical order.
func (p *Provisioner) TableColumns(ctx context.Context, name string) ([]ColumnInfo, error) {
	if err := validateIdent("table name", name); err != nil {
		return nil, newError(KindValidation, err)
	}

	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	// PRAGMA arguments cannot be bound, so the name goes in quoted.
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", schema.QuoteIdent(name)))
	if err != nil {
		return nil, newError(KindExecution, fmt.Errorf("error reading table_info: %w", err))
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid     int
			info    ColumnInfo
			notNull int
			pk      int
			dflt    sql.NullString
		)
		if err := rows.Scan(&cid, &info.Name, &info.Type, &notNull, &dflt, &pk); err != nil {
			return nil, newError(KindExecution, fmt.Errorf("error in Scan: %w", err))
		}
		info.NotNull = notNull != 0
		info.PrimaryKey = pk != 0
		if dflt.Valid {
			info.Default = &dflt.String
		}
		cols = append(cols, info)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindExecution, fmt.Errorf("error reading rows: %w", err))
	}

	// table_info on a missing table yields zero rows rather than an error.
	if len(cols) == 0 {
		return nil, newError(KindExecution, fmt.Errorf("no such table: %s", name))
	}
	return cols, nil
}

// ListTables returns the names of all provisioned tables, excluding
// SQLite's own bookkeeping tables like sqlite_sequence.
func (p *Provisioner) ListTables(ctx context.Context) ([]string, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, newError(KindExecution, fmt.Errorf("error listing tables: %w", err))
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, newError(KindExecution, fmt.Errorf("error in Scan: %w", err))
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, newError(KindExecution, fmt.Errorf("error reading rows: %w", err))
	}
	return tables, nil
}
