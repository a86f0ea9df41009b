package config

import (
	"fmt"
	"time"
)

// PostgresConfig defines the configuration for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// parameterLookup resolves Parameter Store values; replaced in tests.
var parameterLookup = getParameterStoreValue

// DSN builds the connection string. In prod the host and credentials come
// from Parameter Store.
func (cfg *PostgresConfig) DSN(env string) string {
	host, user, password := cfg.credentials(env)
	return cfg.dsn(host, user, password, cfg.DBName)
}

// AdminDSN points at the server's default "postgres" database, for
// bootstrapping the archive database. It uses the same host and credentials
// as DSN.
func (cfg *PostgresConfig) AdminDSN(env string) string {
	host, user, password := cfg.credentials(env)
	return cfg.dsn(host, user, password, "postgres")
}

func (cfg *PostgresConfig) credentials(env string) (host, user, password string) {
	if env != "prod" {
		return cfg.Host, cfg.User, cfg.Password
	}
	return parameterLookup("STOCKCHART_DB_HOST", true),
		parameterLookup("STOCKCHART_DB_USER", true),
		parameterLookup("STOCKCHART_DB_PASSWORD", true)
}

func (cfg *PostgresConfig) dsn(host, user, password, dbname string) string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, dbname, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}
