package collector

import (
	"context"

	"github.com/senbaris/clustereye-pgcheck/internal/collector/postgres"
	"github.com/senbaris/clustereye-pgcheck/internal/config"
)

// Conn is an open connection to one database.
type Conn interface {
	postgres.Querier
	Close() error
}

// Collector opens database connections with the configured server settings
type Collector struct {
	cfg *config.AgentConfig
}

// NewCollector yeni bir Collector örneği oluşturur
func NewCollector(cfg *config.AgentConfig) *Collector {
	return &Collector{
		cfg: cfg,
	}
}

// Connect opens a connection to dbname on the configured server.
func (c *Collector) Connect(ctx context.Context, dbname string) (Conn, error) {
	return postgres.OpenDB(ctx, c.Params(dbname))
}

// Params returns the connection settings for dbname.
func (c *Collector) Params(dbname string) postgres.Params {
	return postgres.Params{
		Host:     c.cfg.PostgreSQL.Host,
		Port:     c.cfg.PostgreSQL.Port,
		User:     c.cfg.PostgreSQL.User,
		Password: c.cfg.PostgreSQL.Pass,
		DBName:   dbname,
		SSLMode:  c.cfg.PostgreSQL.SSLMode,
	}
}
