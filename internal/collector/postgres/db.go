package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL sürücüsü

	"github.com/senbaris/clustereye-pgcheck/internal/logger"
)

// Querier runs diagnostic queries. It is satisfied by *DB and by test fakes.
type Querier interface {
	// QueryAll returns every row as a slice of cell values.
	QueryAll(ctx context.Context, query string, args ...any) ([][]any, error)
	// QueryOne returns the first column of the first row, or nil when the
	// query returns no rows.
	QueryOne(ctx context.Context, query string, args ...any) (any, error)
}

// Params holds connection settings for one database.
type Params struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds a lib/pq key/value connection string.
func (p Params) DSN() string {
	parts := []string{
		"host=" + quoteDSN(p.Host),
		"port=" + quoteDSN(p.Port),
		"user=" + quoteDSN(p.User),
		"dbname=" + quoteDSN(p.DBName),
	}
	if p.Password != "" {
		parts = append(parts, "password="+quoteDSN(p.Password))
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts = append(parts, "sslmode="+quoteDSN(sslMode))
	return strings.Join(parts, " ")
}

func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// DB is a single-connection handle to one database.
type DB struct {
	db     *sql.DB
	dbname string
}

// OpenDB connects to the database described by p and verifies the
// connection with a ping.
func OpenDB(ctx context.Context, p Params) (*DB, error) {
	db, err := sql.Open("postgres", p.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening connection to %s: %w", p.DBName, err)
	}
	// Queries run one after another; a single connection is enough.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s on %s:%s: %w", p.DBName, p.Host, p.Port, err)
	}
	logger.Debug("Connected to database %s on %s:%s", p.DBName, p.Host, p.Port)

	return &DB{db: db, dbname: p.DBName}, nil
}

// Name returns the database name the handle is connected to.
func (d *DB) Name() string {
	return d.dbname
}

// QueryAll implements Querier.
func (d *DB) QueryAll(ctx context.Context, query string, args ...any) ([][]any, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	return out, rows.Err()
}

// QueryOne implements Querier.
func (d *DB) QueryOne(ctx context.Context, query string, args ...any) (any, error) {
	var v any
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return v, nil
}

// Close closes the connection.
func (d *DB) Close() error {
	return d.db.Close()
}
