package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/danthegoodman1/tabled/gologger"
	"github.com/danthegoodman1/tabled/utils"
	_ "github.com/mattn/go-sqlite3"
)

var (
	logger = gologger.NewLogger()

	// DB is the shared pool, set once by ConnectToDB before any request is
	// served.
	DB *sql.DB
)

// Open opens a pooled handle on a SQLite file. The DSN pins the behavior the
// provisioner depends on: WAL so readers don't block on the single writer, a
// busy timeout so concurrent writers queue instead of failing immediately,
// and recursive_triggers off so an update trigger can never re-fire itself.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_recursive_triggers=0", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error in sql.Open: %w", err)
	}

	maxConns := int(utils.GetEnvOrDefaultInt("DB_MAX_CONNS", 10))
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxIdleTime(time.Minute * 30)

	return db, nil
}

// ConnectToDB opens the shared pool on SQLITE_PATH and verifies it with a
// retried ping, since another process may briefly hold the file lock.
func ConnectToDB() error {
	path := utils.GetEnvOrDefault("SQLITE_PATH", "app.sqlite")
	logger.Debug().Str("path", path).Msg("connecting to sqlite...")
	db, err := Open(path)
	if err != nil {
		return fmt.Errorf("error opening sqlite: %w", err)
	}

	err = backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
		defer cancel()
		return db.PingContext(ctx)
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("error pinging sqlite: %w", err)
	}

	DB = db
	logger.Debug().Msg("connected to sqlite")
	return nil
}
