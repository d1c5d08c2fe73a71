package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	postgresstore "github.com/wolfeidau/multicloud/internal/store/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

type PostgresFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`
	StartupTimeout  int32 `help:"seconds to keep retrying the database on startup" default:"30"`
}

func (p *PostgresFlags) validate() error {
	if p.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (p *PostgresFlags) pool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
		ConnString:          p.ConnString,
		MaxConns:            p.MaxConns,
		MinConns:            p.MinConns,
		MaxConnLifetime:     p.MaxConnLifetime,
		MaxConnIdleTime:     p.MaxConnIdleTime,
		StartupRetryTimeout: p.StartupTimeout,
	})
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	// Create HTTP server
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
