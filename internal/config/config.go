package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/tallyhq/tally/internal/common"
)

// Server holds everything the ledger daemon and CLI need to run.
type Server struct {
	// DatabasePath is the SQLite file location, after ~ and $VAR expansion.
	DatabasePath string
	// ListenAddr is the HTTP bind address for the serve command.
	ListenAddr string
	// MaxWallets caps wallets per user. Zero keeps the engine default;
	// negative means unlimited.
	MaxWallets int
}

// LoadEnv loads a .env file from the working directory when one exists.
// Real environment variables always win over file entries.
func LoadEnv() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}
}

// LoadServer resolves the server configuration from Viper, which in turn
// merges the config file, TALLY_* environment variables, and flag bindings.
func LoadServer() (*Server, error) {
	cfg := &Server{
		DatabasePath: viper.GetString("database.path"),
		ListenAddr:   viper.GetString("server.listen"),
		MaxWallets:   viper.GetInt("limits.max_wallets"),
	}

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "$HOME/.local/share/tally/tally.db"
	}
	cfg.DatabasePath = ExpandPath(cfg.DatabasePath)

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:8080"
	}
	if err := validateListenAddr(cfg.ListenAddr); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateListenAddr(addr string) error {
	if !strings.Contains(addr, ":") {
		return fmt.Errorf("%w: listen address %q needs a host:port form", common.ErrInvalidConfig, addr)
	}
	return nil
}
