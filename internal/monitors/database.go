package monitors

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/sahana/eden/internal/types"

	// Database drivers
	_ "github.com/lib/pq"
)

const defaultDatabaseTimeout = 10

// Database opens a connection to the configured postgres or mysql database
// and pings it.
func (c *Checker) Database(ctx context.Context, taskID, runID uint) (Result, error) {
	var opts types.DatabaseConfig

	if _, err := c.loadTask(ctx, taskID, &opts); err != nil {
		return criticalResult("Critical: %v", err), nil
	}

	if err := pingDatabase(ctx, &opts); err != nil {
		return criticalResult("Critical: Database Error\n\n%v", err), nil
	}

	return okResult("OK: %s database %s reachable", opts.Type, opts.Database), nil
}

// databaseDSN picks the driver and builds its connection string.
func databaseDSN(config *types.DatabaseConfig) (driver, dsn string, err error) {
	switch config.Type {
	case "postgres", "postgresql":
		sslMode := config.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(config.Username, config.Password),
			Host:     net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
			Path:     "/" + config.Database,
			RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
		}
		return "postgres", u.String(), nil
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = config.Username
		cfg.Passwd = config.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
		cfg.DBName = config.Database
		return "mysql", cfg.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported database type: %q", config.Type)
	}
}

func pingDatabase(ctx context.Context, config *types.DatabaseConfig) error {
	driver, dsn, err := databaseDSN(config)
	if err != nil {
		return err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open a database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
