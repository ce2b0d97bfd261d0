package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Options locate the MySQL schema and size the connection pool.  Zero pool
// values take the defaults below.
type Options struct {
	User, Password string
	Host, Port     string
	Name           string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to MySQL and pings it within 5 s.
func Open(o Options) (*sql.DB, error) {
	connector, err := mysql.NewConnector(driverConfig(o))
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 25
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = o.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxIdleConns)
	db.SetConnMaxLifetime(o.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql %s: %w", net.JoinHostPort(o.Host, o.Port), err)
	}
	return db, nil
}

// driverConfig scans DATETIME into time.Time in UTC and talks utf8mb4, so
// accents in names and stored instants survive the round trip.
func driverConfig(o Options) *mysql.Config {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(o.Host, o.Port)
	c.DBName = o.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.Collation = "utf8mb4_unicode_ci"
	return c
}

// DSN renders o as a driver connection string, for tooling and logs.
func DSN(o Options) string { return driverConfig(o).FormatDSN() }
