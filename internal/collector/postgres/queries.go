package postgres

import (
	"context"
	"fmt"
)

// Diagnostic queries. Parameters are positional ($1) so database names are
// never spliced into SQL text.
const (
	QueryStatsEnabled = `SELECT current_setting('track_counts')`

	QueryUptime = `SELECT to_char(now() - pg_postmaster_start_time(), 'DDD"d" HH24":"MI":"SS') AS uptime`

	QueryConnCount = `SELECT count(*) FROM pg_stat_activity`

	QueryConnByUser = `SELECT coalesce(usename::text, '-') AS usename, count(*) AS cnt
		FROM pg_stat_activity GROUP BY 1 ORDER BY cnt DESC, 1 LIMIT $1`

	QueryConnByAddr = `SELECT coalesce(host(client_addr), 'local') AS addr, count(*) AS cnt
		FROM pg_stat_activity GROUP BY 1 ORDER BY cnt DESC, 1 LIMIT $1`

	QueryTransactions = `SELECT xact_commit + xact_rollback, extract(epoch FROM now())::bigint
		FROM pg_stat_database WHERE datname = $1`

	QueryServerTransactions = `SELECT coalesce(sum(xact_commit + xact_rollback), 0)::bigint, extract(epoch FROM now())::bigint
		FROM pg_stat_database`

	QueryDiskCache = `SELECT blks_read, blks_hit,
		blks_hit::float / nullif(blks_hit + blks_read, 0) AS eff
		FROM pg_stat_database WHERE datname = $1`

	QueryTupleLoad = `SELECT tup_fetched, tup_inserted + tup_updated + tup_deleted AS tup_modified
		FROM pg_stat_database WHERE datname = $1`

	QueryIndexEfficiency = `SELECT relname, coalesce(seq_scan, 0), coalesce(idx_scan, 0),
		idx_scan::float / nullif(coalesce(seq_scan, 0) + coalesce(idx_scan, 0), 0) AS eff
		FROM pg_stat_user_tables ORDER BY eff ASC NULLS LAST, relname LIMIT $1`
)

// StatsEnabled reports whether the server collects table and index
// statistics (track_counts). Without them every counter stays at zero.
func StatsEnabled(ctx context.Context, q Querier) (bool, error) {
	v, err := q.QueryOne(ctx, QueryStatsEnabled)
	if err != nil {
		return false, fmt.Errorf("reading track_counts: %w", err)
	}
	return toString(v) == "on", nil
}

// GetUptime returns the postmaster uptime formatted like '060d 14:16:54'.
func GetUptime(ctx context.Context, q Querier) (string, error) {
	v, err := q.QueryOne(ctx, QueryUptime)
	if err != nil {
		return "", fmt.Errorf("reading server uptime: %w", err)
	}
	if v == nil {
		return "", fmt.Errorf("reading server uptime: no rows")
	}
	return toString(v), nil
}

// GetConnSummary returns the connection count and the top busiest users and
// client addresses.
func GetConnSummary(ctx context.Context, q Querier, top int) (*ConnSummary, error) {
	v, err := q.QueryOne(ctx, QueryConnCount)
	if err != nil {
		return nil, fmt.Errorf("counting connections: %w", err)
	}
	count, err := toInt64(v)
	if err != nil {
		return nil, fmt.Errorf("counting connections: %w", err)
	}

	users, err := countByName(ctx, q, QueryConnByUser, top)
	if err != nil {
		return nil, fmt.Errorf("grouping connections by user: %w", err)
	}
	addrs, err := countByName(ctx, q, QueryConnByAddr, top)
	if err != nil {
		return nil, fmt.Errorf("grouping connections by address: %w", err)
	}

	return &ConnSummary{Count: count, Users: users, Addrs: addrs}, nil
}

func countByName(ctx context.Context, q Querier, query string, top int) ([]CountByName, error) {
	rows, err := q.QueryAll(ctx, query, top)
	if err != nil {
		return nil, err
	}
	out := make([]CountByName, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("expected 2 columns, got %d", len(row))
		}
		n, err := toInt64(row[1])
		if err != nil {
			return nil, err
		}
		out = append(out, CountByName{Name: toString(row[0]), Count: n})
	}
	return out, nil
}

// GetTransactionCounters returns the cumulative transaction count of one
// database and the server clock.
func GetTransactionCounters(ctx context.Context, q Querier, dbname string) (*TransactionCounters, error) {
	row, err := firstRow(ctx, q, 2, QueryTransactions, dbname)
	if err != nil {
		return nil, fmt.Errorf("reading transactions of %s: %w", dbname, err)
	}
	return transactionCounters(row)
}

// GetServerTransactionCounters returns the transaction count summed over all
// databases of the server and the server clock.
func GetServerTransactionCounters(ctx context.Context, q Querier) (*TransactionCounters, error) {
	row, err := firstRow(ctx, q, 2, QueryServerTransactions)
	if err != nil {
		return nil, fmt.Errorf("reading server transactions: %w", err)
	}
	return transactionCounters(row)
}

func transactionCounters(row []any) (*TransactionCounters, error) {
	total, err := toInt64(row[0])
	if err != nil {
		return nil, fmt.Errorf("transaction count: %w", err)
	}
	epoch, err := toInt64(row[1])
	if err != nil {
		return nil, fmt.Errorf("server clock: %w", err)
	}
	return &TransactionCounters{Transactions: total, Epoch: epoch}, nil
}

// GetDiskCacheInfo returns block reads and cache hits of one database.
func GetDiskCacheInfo(ctx context.Context, q Querier, dbname string) (*DiskCacheInfo, error) {
	row, err := firstRow(ctx, q, 3, QueryDiskCache, dbname)
	if err != nil {
		return nil, fmt.Errorf("reading disk cache stats of %s: %w", dbname, err)
	}
	read, err := toInt64(row[0])
	if err != nil {
		return nil, err
	}
	hit, err := toInt64(row[1])
	if err != nil {
		return nil, err
	}
	eff, err := toFloatPtr(row[2])
	if err != nil {
		return nil, err
	}
	return &DiskCacheInfo{BlocksRead: read, BlocksHit: hit, Efficiency: eff}, nil
}

// GetTupleLoad returns tuples fetched and modified in one database.
func GetTupleLoad(ctx context.Context, q Querier, dbname string) (*TupleLoad, error) {
	row, err := firstRow(ctx, q, 2, QueryTupleLoad, dbname)
	if err != nil {
		return nil, fmt.Errorf("reading tuple stats of %s: %w", dbname, err)
	}
	fetched, err := toInt64(row[0])
	if err != nil {
		return nil, err
	}
	modified, err := toInt64(row[1])
	if err != nil {
		return nil, err
	}
	return &TupleLoad{Fetched: fetched, Modified: modified}, nil
}

// GetTableIndexEfficiency returns the tables of the connected database with
// the lowest share of index scans, worst first.
func GetTableIndexEfficiency(ctx context.Context, q Querier, limit int) ([]TableIndexEfficiency, error) {
	rows, err := q.QueryAll(ctx, QueryIndexEfficiency, limit)
	if err != nil {
		return nil, fmt.Errorf("reading index efficiency: %w", err)
	}
	out := make([]TableIndexEfficiency, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			return nil, fmt.Errorf("reading index efficiency: expected 4 columns, got %d", len(row))
		}
		seq, err := toInt64(row[1])
		if err != nil {
			return nil, err
		}
		idx, err := toInt64(row[2])
		if err != nil {
			return nil, err
		}
		eff, err := toFloatPtr(row[3])
		if err != nil {
			return nil, err
		}
		out = append(out, TableIndexEfficiency{
			Table:      toString(row[0]),
			SeqScan:    seq,
			IdxScan:    idx,
			Efficiency: eff,
		})
	}
	return out, nil
}

func firstRow(ctx context.Context, q Querier, cols int, query string, args ...any) ([]any, error) {
	rows, err := q.QueryAll(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	if len(rows[0]) < cols {
		return nil, fmt.Errorf("expected %d columns, got %d", cols, len(rows[0]))
	}
	return rows[0], nil
}
