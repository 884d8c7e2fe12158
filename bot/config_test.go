package bot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starshine-sys/guildcache/cache"
)

func writeConfig(t *testing.T, s string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(s), 0o600))
	return path
}

func TestReadConfig(t *testing.T) {
	t.Setenv("TOKEN", "")

	path := writeConfig(t, `
[auth]
discord = "abc"
redis = "redis://localhost:6379"

[cache]
removal_window = "5m"
fetch_miss_ttl = "30s"

[cache.reserved_names]
log_channel = "logs"

[server]
listen = ":8080"
prometheus = true

[log]
debug = true
`)

	c, err := ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "abc", c.Auth.Discord)
	assert.Equal(t, "redis://localhost:6379", c.Auth.Redis)
	assert.Equal(t, 5*time.Minute, c.Cache.RemovalWindow.Duration())
	assert.Equal(t, 30*time.Second, c.Cache.FetchMissTTL.Duration())
	assert.Equal(t, "logs", c.Cache.ReservedNames.LogChannel)
	// unset names keep their defaults
	assert.Equal(t, cache.DefaultReservedNames.BypassRole, c.Cache.ReservedNames.BypassRole)
	assert.Equal(t, time.Minute, c.Stats.Interval.Duration())
	assert.True(t, c.Server.Prometheus)
	assert.True(t, c.Log.Debug)
}

func TestReadConfigTokenOverride(t *testing.T) {
	t.Setenv("TOKEN", "from-env")

	c, err := ReadConfig(writeConfig(t, "[auth]\ndiscord = \"abc\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Auth.Discord)
}

func TestReadConfigInvalid(t *testing.T) {
	t.Setenv("TOKEN", "")

	for name, s := range map[string]string{
		"no token":             "",
		"prometheus no listen": "[auth]\ndiscord = \"abc\"\n[server]\nprometheus = true\n",
		"partial influx":       "[auth]\ndiscord = \"abc\"\n[auth.influx]\nurl = \"http://localhost:8086\"\n",
	} {
		_, err := ReadConfig(writeConfig(t, s))
		assert.True(t, errors.Is(err, ErrInvalidConfig), name)
	}

	_, err := ReadConfig(writeConfig(t, "[cache]\nremoval_window = \"soon\"\n"))
	assert.Error(t, err)

	_, err = ReadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
