package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"go-claims/internal/config"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"go.uber.org/fx"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor runs fn inside a single database transaction. Repositories
// called with the ctx passed to fn join that transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// SQLDB is the relational entity store: claims, policies, workflow
// definitions and durable timers live here because they need row locks.
type SQLDB struct {
	DB      *sql.DB
	Dialect Dialect
}

// NewSQLDatabase opens the pooled connection and applies the schema.
func NewSQLDatabase(lc fx.Lifecycle, cfg *config.Config) (*SQLDB, error) {
	dsn, err := normalizeDSN(Dialect(cfg.SQLDriver), cfg.SQLDSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.SQLDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.SQLMaxOpenConns)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLDB{DB: db, Dialect: Dialect(cfg.SQLDriver)}
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}

	log.Printf("Connected to %s entity store", cfg.SQLDriver)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing entity store...")
			return db.Close()
		},
	})

	return store, nil
}

// normalizeDSN makes the MySQL driver scan DATETIME columns into time.Time
// in UTC, which the repositories rely on.
func normalizeDSN(dialect Dialect, dsn string) (string, error) {
	if dialect != DialectMySQL {
		return dsn, nil
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid mysql SQL_DSN: %w", err)
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN(), nil
}

// Conn returns the transaction bound to ctx, or the pool when there is none.
func (d *SQLDB) Conn(ctx context.Context) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return d.DB
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

func (d *SQLDB) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rebind rewrites ? placeholders into the driver's native form.
func (d *SQLDB) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *SQLDB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.Conn(ctx).ExecContext(ctx, d.Rebind(query), args...)
}

func (d *SQLDB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.Conn(ctx).QueryContext(ctx, d.Rebind(query), args...)
}

func (d *SQLDB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.Conn(ctx).QueryRowContext(ctx, d.Rebind(query), args...)
}

// IsUniqueViolation reports duplicate-key errors from either driver.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

// IsForeignKeyViolation reports referential-integrity errors from either driver.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1451 || myErr.Number == 1452
	}
	return false
}

// NullableInt converts a sql.NullInt64 into the *int the models use.
func NullableInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// IntArg turns an optional int into a driver argument (NULL when nil).
func IntArg(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
