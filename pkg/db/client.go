package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"github.com/angelmondragon/scoreboard-manager/pkg/config"
	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
	"go.uber.org/multierr"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client wraps the shared GORM connections.
//
// conn serves end-user requests. elevated connects as the service role and is
// reserved for admin operations and webhook reconciliation; it is the same
// handle as conn when no elevated DSN is configured.
type Client struct {
	conn     *gorm.DB
	elevated *gorm.DB
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New boots a GORM client using the provided configuration.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	conn, err := open(cfg.DSN, cfg)
	if err != nil {
		return nil, err
	}

	elevated := conn
	if cfg.ElevatedDSN != "" && cfg.ElevatedDSN != cfg.DSN {
		elevated, err = open(cfg.ElevatedDSN, cfg)
		if err != nil {
			return nil, fmt.Errorf("elevated connection: %w", err)
		}
		if logg != nil {
			logg.Info(ctx, "elevated database connection established")
		}
	}

	if logg != nil {
		logg.Info(ctx, "database connection established")
	}

	return &Client{conn: conn, elevated: elevated}, nil
}

// NewFromGorm wraps existing handles. A nil elevated handle reuses conn.
func NewFromGorm(conn, elevated *gorm.DB) *Client {
	if elevated == nil {
		elevated = conn
	}
	return &Client{conn: conn, elevated: elevated}
}

func open(dsn string, cfg config.DBConfig) (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	})

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	applyPoolSettings(sqlDB, cfg)
	return conn, nil
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// DB returns the end-user GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Elevated returns the service-role GORM connection.
func (c *Client) Elevated() *gorm.DB {
	if c.elevated == nil {
		return c.conn
	}
	return c.elevated
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	if c.elevated != nil && c.elevated != c.conn {
		if elevatedDB, derr := c.elevated.DB(); derr == nil {
			err = multierr.Append(err, elevatedDB.Close())
		} else {
			err = multierr.Append(err, derr)
		}
	}
	return err
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return WithTx(ctx, c.conn, fn)
}

// WithTx executes fn inside a transaction on conn, rolling back on error/panic.
func WithTx(ctx context.Context, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
