package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/senbaris/clustereye-pgcheck/internal/collector"
	"github.com/senbaris/clustereye-pgcheck/internal/collector/postgres"
	"github.com/senbaris/clustereye-pgcheck/internal/config"
	"github.com/senbaris/clustereye-pgcheck/internal/counter"
	"github.com/senbaris/clustereye-pgcheck/internal/logger"
	"github.com/senbaris/clustereye-pgcheck/internal/report"
	"github.com/senbaris/clustereye-pgcheck/internal/state"
)

// Counter names kept in the state file.
const (
	metricQPS     = "qps"
	metricQPSTime = "qpstime"
)

const (
	topConnections = 2
	topTables      = 2
)

// GateState is the outcome of the statistics precondition check.
type GateState int

const (
	GateUnknown GateState = iota
	GateStatsDisabled
	GateStatsEnabled
)

func (g GateState) String() string {
	switch g {
	case GateStatsDisabled:
		return "stats_disabled"
	case GateStatsEnabled:
		return "stats_enabled"
	default:
		return "unknown"
	}
}

// Connector opens a connection to a database of the monitored server.
type Connector interface {
	Connect(ctx context.Context, dbname string) (collector.Conn, error)
}

// Agent runs one check: it collects metrics, computes deltas against the
// previous run and persists the new counters.
type Agent struct {
	cfg   *config.AgentConfig
	conns Connector
	store *state.Store
	gate  GateState
}

// NewAgent yeni bir Agent örneği oluşturur
func NewAgent(cfg *config.AgentConfig, conns Connector, store *state.Store) *Agent {
	return &Agent{
		cfg:   cfg,
		conns: conns,
		store: store,
	}
}

// Gate returns the state of the statistics gate after Run.
func (a *Agent) Gate() GateState {
	return a.gate
}

// Run performs the check and returns its result. State is saved only when
// every step that reads previous counters has completed.
func (a *Agent) Run(ctx context.Context) *report.Result {
	res := report.New()
	adminDB := a.cfg.PostgreSQL.AdminDB

	admin, err := a.conns.Connect(ctx, adminDB)
	if err != nil {
		logger.Error("Admin database connection failed: %v", err)
		res.Add(report.Critical, "cannot connect to %s: %v", adminDB, err)
		return res
	}
	defer admin.Close()

	if err := a.checkGate(ctx, admin); err != nil {
		res.Add(report.Critical, "%v", err)
		return res
	}
	if a.gate == GateStatsDisabled {
		res.Add(report.Unknown, "statistics collection is disabled on the server (track_counts = off)")
		return res
	}

	if err := a.store.Lock(); err != nil {
		res.Add(report.Unknown, "cannot lock state file: %v", err)
		return res
	}
	defer func() {
		if err := a.store.Unlock(); err != nil {
			logger.Warning("Releasing state lock failed: %v", err)
		}
	}()

	snap, err := a.store.Load()
	if err != nil {
		if errors.Is(err, state.ErrMalformed) {
			logger.Error("State file is corrupt, remove it to reset: %v", err)
		}
		res.Add(report.Unknown, "cannot load state: %v", err)
		return res
	}
	registry := state.NewRegistry(snap)

	if err := a.collectServer(ctx, admin, registry.Register(state.InstanceKey), res); err != nil {
		res.Add(report.Critical, "%v", err)
		return res
	}

	for _, name := range uniqueNames(a.cfg.PostgreSQL.Databases) {
		a.collectDatabase(ctx, name, registry, res)
	}

	if err := ctx.Err(); err != nil {
		res.Add(report.Unknown, "check interrupted: %v", err)
		return res
	}

	if err := a.store.Save(registry.CollectAll()); err != nil {
		logger.Error("Saving state failed: %v", err)
		res.Add(report.Warning, "cannot save state: %v", err)
	}
	return res
}

func (a *Agent) checkGate(ctx context.Context, q postgres.Querier) error {
	enabled, err := postgres.StatsEnabled(ctx, q)
	if err != nil {
		a.gate = GateUnknown
		return err
	}
	if enabled {
		a.gate = GateStatsEnabled
	} else {
		a.gate = GateStatsDisabled
	}
	logger.Debug("Statistics gate: %s", a.gate)
	return nil
}

// collectServer reports server-wide information into the message part.
func (a *Agent) collectServer(ctx context.Context, q postgres.Querier, e *state.Entity, res *report.Result) error {
	uptime, err := postgres.GetUptime(ctx, q)
	if err != nil {
		return err
	}
	summary, err := postgres.GetConnSummary(ctx, q, topConnections)
	if err != nil {
		return err
	}
	tc, err := postgres.GetServerTransactionCounters(ctx, q)
	if err != nil {
		return err
	}
	qps := counter.Sample(e.State(), metricQPS, metricQPSTime, tc.Transactions, tc.Epoch)

	res.Add(report.OK, "Uptime:%s", uptime)
	res.Add(report.OK, "instances:%d", summary.Count)
	res.Add(report.OK, "topIPs:%s", report.JoinPairs(pairs(summary.Addrs)))
	res.Add(report.OK, "topusers:%s", report.JoinPairs(pairs(summary.Users)))
	res.Add(report.OK, "qps:%s", counter.Truncate(qps))
	return nil
}

// collectDatabase adds the performance piece of one target database. A
// failing target is reported as CRITICAL without stopping the others; its
// stored counters are left as they were.
func (a *Agent) collectDatabase(ctx context.Context, name string, registry *state.Registry, res *report.Result) {
	conn, err := a.conns.Connect(ctx, name)
	if err != nil {
		logger.Error("Connection to %s failed: %v", name, err)
		res.Add(report.Critical, "%s: cannot connect: %v", name, err)
		return
	}
	defer conn.Close()

	tc, err := postgres.GetTransactionCounters(ctx, conn, name)
	if err != nil {
		res.Add(report.Critical, "%s: %v", name, err)
		return
	}
	e := registry.Register(name)
	qps := counter.Sample(e.State(), metricQPS, metricQPSTime, tc.Transactions, tc.Epoch)
	items := []string{"qps:" + counter.Truncate(qps)}

	stats := a.cfg.Stats
	if stats.Disk {
		info, err := postgres.GetDiskCacheInfo(ctx, conn, name)
		if err != nil {
			res.Add(report.Critical, "%s: %v", name, err)
		} else {
			items = append(items, fmt.Sprintf("diskread:%d,cachehit:%d(%s)",
				info.BlocksRead, info.BlocksHit, report.Percent(info.Efficiency)))
		}
	}
	if stats.Tuple {
		load, err := postgres.GetTupleLoad(ctx, conn, name)
		if err != nil {
			res.Add(report.Critical, "%s: %v", name, err)
		} else {
			items = append(items, fmt.Sprintf("tupfetch:%d,tupmod:%d", load.Fetched, load.Modified))
		}
	}
	if stats.Index {
		tables, err := postgres.GetTableIndexEfficiency(ctx, conn, topTables)
		if err != nil {
			res.Add(report.Critical, "%s: %v", name, err)
		} else {
			items = append(items, "TABLES:{"+formatTables(tables)+"}")
		}
	}

	res.AddPerf(report.DatabasePiece(name, items))
	logger.Debug("Collected %d performance items for %s", len(items), name)
}

func formatTables(tables []postgres.TableIndexEfficiency) string {
	out := make([]report.Pair, 0, len(tables))
	for _, t := range tables {
		out = append(out, report.Pair{
			Name:  t.Table,
			Value: fmt.Sprintf("seqscan:%d,indscan:%d(%s)", t.SeqScan, t.IdxScan, report.Percent(t.Efficiency)),
		})
	}
	return report.JoinPairs(out)
}

func pairs(counts []postgres.CountByName) []report.Pair {
	out := make([]report.Pair, 0, len(counts))
	for _, c := range counts {
		out = append(out, report.Pair{Name: c.Name, Value: c.Count})
	}
	return out
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
