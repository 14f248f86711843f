// Package fluxorm is a data access layer for SQLite, PostgreSQL and
// MySQL. Models map themselves to and from column values; generic
// record operations (Create, Find, All, Update, Delete and friends)
// generate the SQL through a dialect-aware builder; drivers stack
// statement logging, query statistics and snapshot caching on top of
// database/sql.
package fluxorm

import (
	"github.com/maxBogovick/fluxorm/config"
	"github.com/maxBogovick/fluxorm/dialect"
	"github.com/maxBogovick/fluxorm/dialect/sql"
)

// Open builds the driver stack the configuration describes: the base
// connection pool, then statement logging, slow-query statistics and
// result caching, each only when enabled. The connection is not
// verified; callers that need an early failure should Ping. A nil
// configuration opens the defaults.
func Open(cfg *config.Config) (dialect.Driver, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db := base.DB()
	if n := cfg.Pool.MaxOpenConns; n > 0 {
		db.SetMaxOpenConns(n)
	}
	if n := cfg.Pool.MaxIdleConns; n > 0 {
		db.SetMaxIdleConns(n)
	}
	if d := cfg.Pool.ConnMaxLifetime.Std(); d > 0 {
		db.SetConnMaxLifetime(d)
	}
	if d := cfg.Pool.ConnMaxIdleTime.Std(); d > 0 {
		db.SetConnMaxIdleTime(d)
	}
	var drv dialect.Driver = base
	if cfg.QueryLogging {
		drv = sql.NewDebugDriver(drv)
	}
	if d := cfg.SlowQueryThreshold.Std(); d > 0 {
		drv = sql.NewStatsDriver(drv,
			sql.WithSlowThreshold(d),
			sql.WithSlowQueryLog())
	}
	if d := cfg.CacheTTL.Std(); d > 0 {
		drv = NewCachedDriver(drv, NewMemoryCache(), d)
	}
	return drv, nil
}

// FromConfig translates the configuration's behavior switches into
// the options the record operations take.
func FromConfig(cfg *config.Config) []Option {
	opts := []Option{WithAutoTimestamps(cfg.AutoTimestamps)}
	if cfg.StrictMode {
		opts = append(opts, WithStrictValidation())
	}
	if cfg.QueryLogging {
		opts = append(opts, WithQueryLog(nil))
	}
	return opts
}
