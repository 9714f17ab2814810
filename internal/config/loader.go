package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/dvkit/transfer/internal/db"
)

// Server holds the HTTP and engine settings.
type Server struct {
	Port                int
	CORSOrigins         []string
	MigrationsPath      string
	SimplePluralization bool
}

// DefaultServer returns the default server configuration.
func DefaultServer() Server {
	return Server{
		Port:           8080,
		CORSOrigins:    []string{"http://localhost:3000"},
		MigrationsPath: "./migrations",
	}
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv() // allow environment overrides
	return v
}

// LoadDBConfig reads database settings from config.yaml with env
// overrides like DB_DATABASE_HOST.
func LoadDBConfig(configPath string) (db.Config, error) {
	cfg := db.DefaultConfig()

	v := newViper(configPath)
	v.SetEnvPrefix("DB")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("database.host") {
		cfg.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}

// LoadServerConfig reads server settings from config.yaml with env
// overrides like SERVER_PORT.
func LoadServerConfig(configPath string) (Server, error) {
	cfg := DefaultServer()

	v := newViper(configPath)
	v.SetEnvPrefix("SERVER")
	v.BindEnv("server.port")
	v.BindEnv("server.cors_origins")
	v.BindEnv("server.migrations_path")
	v.BindEnv("odata.simple_pluralization")

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config.yaml found, using defaults and env vars")
	}

	if v.IsSet("server.port") {
		cfg.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.cors_origins") {
		cfg.CORSOrigins = v.GetStringSlice("server.cors_origins")
	}
	if v.IsSet("server.migrations_path") {
		cfg.MigrationsPath = v.GetString("server.migrations_path")
	}
	if v.IsSet("odata.simple_pluralization") {
		cfg.SimplePluralization = v.GetBool("odata.simple_pluralization")
	}

	return cfg, nil
}
