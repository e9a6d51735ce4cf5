package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyhq/tally/internal/common"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("TALLY_TEST_DIR", "/srv/tally")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "/var/lib/tally.db", "/var/lib/tally.db"},
		{"tilde prefix", "~/data/tally.db", filepath.Join(home, "data/tally.db")},
		{"bare tilde", "~", home},
		{"env var", "$TALLY_TEST_DIR/tally.db", "/srv/tally/tally.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadServer_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Contains(t, cfg.DatabasePath, "tally.db")
	assert.NotContains(t, cfg.DatabasePath, "$HOME")
	assert.Zero(t, cfg.MaxWallets)
}

func TestLoadServer_FromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("database.path", "/tmp/custom.db")
	viper.Set("server.listen", "0.0.0.0:9000")
	viper.Set("limits.max_wallets", 5)

	cfg, err := LoadServer()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.DatabasePath)
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, 5, cfg.MaxWallets)
}

func TestLoadServer_RejectsBadListenAddr(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("server.listen", "localhost")

	_, err := LoadServer()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
