package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/senbaris/clustereye-pgcheck/internal/agent"
	"github.com/senbaris/clustereye-pgcheck/internal/collector"
	"github.com/senbaris/clustereye-pgcheck/internal/config"
	"github.com/senbaris/clustereye-pgcheck/internal/logger"
	"github.com/senbaris/clustereye-pgcheck/internal/report"
	"github.com/senbaris/clustereye-pgcheck/internal/state"
)

const version = "v1.0.0"

type options struct {
	configPath string
	stateFile  string
	logLevel   string

	databases []string
	host      string
	port      string
	user      string
	password  string
	adminDB   string
	sslMode   string

	diskstat bool
	tupstat  bool
	indstat  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the plugin exit code. Help,
// version and usage errors exit with UNKNOWN like other check plugins.
func run(args []string, stdout, stderr io.Writer) int {
	exitCode := int(report.Unknown)

	cmd := newRootCmd(func(cmd *cobra.Command, cfg *config.AgentConfig) error {
		res := check(cmd.Context(), cfg)
		fmt.Fprintln(stdout, res.String())
		exitCode = res.ExitCode()
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stdout, "%s: %v\n", report.Unknown, err)
		return int(report.Unknown)
	}
	return exitCode
}

func newRootCmd(runCheck func(*cobra.Command, *config.AgentConfig) error) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "check_postgre",
		Short: "Check PostgreSQL server health and report its performance",
		Long: `check_postgre is a Nagios/NRPE plugin. It prints one status line with
server uptime, connection summary and per-database performance data, and
exits with 0 (OK), 1 (WARNING), 2 (CRITICAL) or 3 (UNKNOWN).

Transaction rates are computed against the previous run, whose counters are
kept in a state file under the system temp directory.
If no password is given, lib/pq falls back to PGPASSWORD and ~/.pgpass.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAgentConfig(opts.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, opts, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runCheck(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	// -h is the host, as in psql; help is long-only.
	flags.Bool("help", false, "show this help")
	flags.StringArrayVarP(&opts.databases, "dbname", "d", nil, "database to monitor, can be given multiple times")
	flags.StringVarP(&opts.host, "host", "h", "127.0.0.1", "database server host")
	flags.StringVarP(&opts.user, "username", "U", "postgres", "database user name")
	flags.StringVarP(&opts.port, "port", "p", "5432", "database server port")
	flags.StringVarP(&opts.password, "password", "W", "", "password to connect with")
	flags.StringVar(&opts.adminDB, "admin-db", "postgres", "database used for server-wide checks")
	flags.StringVar(&opts.sslMode, "sslmode", "disable", "lib/pq sslmode")
	flags.BoolVar(&opts.diskstat, "diskstat", false, "include disk cache usage in performance data")
	flags.BoolVar(&opts.tupstat, "tupstat", false, "include tuples read/modified in performance data")
	flags.BoolVar(&opts.indstat, "indstat", false, "include index efficiency in performance data")
	flags.StringVar(&opts.configPath, "config", "", "config file (default ./"+config.FileName+" or /etc/check_postgre/"+config.FileName+")")
	flags.StringVar(&opts.stateFile, "state-file", "", "state file (default <tmp>/check_postgre-<uid>/<host>_<port>_<user>/"+state.FileName+")")
	flags.StringVar(&opts.logLevel, "loglevel", "", "log level: DEBUG, INFO, WARNING, ERROR")

	return cmd
}

// applyFlags copies explicitly given flags over the config file values.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.AgentConfig) {
	changed := cmd.Flags().Changed
	if changed("dbname") {
		cfg.PostgreSQL.Databases = opts.databases
	}
	if changed("host") {
		cfg.PostgreSQL.Host = opts.host
	}
	if changed("port") {
		cfg.PostgreSQL.Port = opts.port
	}
	if changed("username") {
		cfg.PostgreSQL.User = opts.user
	}
	if changed("password") {
		cfg.PostgreSQL.Pass = opts.password
	}
	if changed("admin-db") {
		cfg.PostgreSQL.AdminDB = opts.adminDB
	}
	if changed("sslmode") {
		cfg.PostgreSQL.SSLMode = opts.sslMode
	}
	if changed("diskstat") {
		cfg.Stats.Disk = opts.diskstat
	}
	if changed("tupstat") {
		cfg.Stats.Tuple = opts.tupstat
	}
	if changed("indstat") {
		cfg.Stats.Index = opts.indstat
	}
	if changed("state-file") {
		cfg.StateFile = opts.stateFile
	}
	if changed("loglevel") {
		cfg.LogLevel = opts.logLevel
	}
}

func check(parent context.Context, cfg *config.AgentConfig) *report.Result {
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	runID := logger.StartRun()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	statePath := cfg.StateFile
	if statePath == "" {
		statePath = state.DefaultPath(cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.User)
	}
	logger.Info("Check %s starting for %s:%s, state file %s", runID, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, statePath)

	a := agent.NewAgent(cfg, collector.NewCollector(cfg), state.NewStore(statePath))
	res := a.Run(ctx)

	logger.Info("Check finished with %s", res.Status())
	return res
}
