package postgres

// CountByName is one row of a grouped count, e.g. connections per user.
type CountByName struct {
	Name  string
	Count int64
}

// ConnSummary describes the current client connections of the server.
type ConnSummary struct {
	Count int64
	Users []CountByName // busiest users first
	Addrs []CountByName // busiest client addresses first
}

// TransactionCounters is a cumulative transaction count (commits plus
// rollbacks) together with the server clock in epoch seconds.
type TransactionCounters struct {
	Transactions int64
	Epoch        int64
}

// DiskCacheInfo holds block reads and buffer cache hits of a database.
type DiskCacheInfo struct {
	BlocksRead int64
	BlocksHit  int64
	Efficiency *float64 // nil until any block has been accessed
}

// TupleLoad holds tuples read and modified in a database.
type TupleLoad struct {
	Fetched  int64
	Modified int64
}

// TableIndexEfficiency compares sequential and index scans of a table.
type TableIndexEfficiency struct {
	Table      string
	SeqScan    int64
	IdxScan    int64
	Efficiency *float64 // nil when the table was never scanned
}
