package bot

import (
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"

	"github.com/starshine-sys/guildcache/cache"
	"github.com/starshine-sys/guildcache/logsetup"
)

type Config struct {
	Auth   AuthConfig      `toml:"auth"`
	Cache  CacheConfig     `toml:"cache"`
	Stats  StatsConfig     `toml:"stats"`
	Server ServerConfig    `toml:"server"`
	Log    logsetup.Config `toml:"log"`
}

type AuthConfig struct {
	Discord string `toml:"discord"`
	Redis   string `toml:"redis"`
	Sentry  string `toml:"sentry"`

	Influx AuthInfluxConfig `toml:"influx"`
}

type AuthInfluxConfig struct {
	URL          string `toml:"url"`
	Token        string `toml:"token"`
	Organization string `toml:"organization"`
	Database     string `toml:"database"`
}

type CacheConfig struct {
	ReservedNames cache.ReservedNames `toml:"reserved_names"`

	RemovalWindow duration `toml:"removal_window"`
	FetchMissTTL  duration `toml:"fetch_miss_ttl"`
}

type StatsConfig struct {
	Interval    duration `toml:"interval"`
	RedisPrefix string   `toml:"redis_prefix"`
}

type ServerConfig struct {
	// Listen is the address the API listens on. The API is disabled if it's empty.
	Listen     string `toml:"listen"`
	Prometheus bool   `toml:"prometheus"`
}

// duration is a time.Duration read from a string like "10m".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "parsing duration %q", string(text))
	}
	*d = duration(v)
	return nil
}

func (d duration) Duration() time.Duration { return time.Duration(d) }

func defaultConfig() Config {
	return Config{
		Cache: CacheConfig{
			ReservedNames: cache.DefaultReservedNames,
		},
		Stats: StatsConfig{
			Interval:    duration(time.Minute),
			RedisPrefix: "guildcache",
		},
	}
}

// ReadConfig reads the config file at path. The TOKEN environment variable overrides the Discord token.
func ReadConfig(path string) (c Config, err error) {
	c = defaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "read config file")
	}

	err = toml.Unmarshal(b, &c)
	if err != nil {
		return c, errors.Wrap(err, "unmarshal config")
	}

	if token := os.Getenv("TOKEN"); token != "" {
		c.Auth.Discord = token
	}

	return c, c.Validate()
}

const ErrInvalidConfig = errors.Sentinel("invalid config")

func (c Config) Validate() error {
	if c.Auth.Discord == "" {
		return errors.Wrap(ErrInvalidConfig, "no Discord token set")
	}

	influx := c.Auth.Influx
	if influx.URL != "" && (influx.Token == "" || influx.Organization == "" || influx.Database == "") {
		return errors.Wrap(ErrInvalidConfig, "InfluxDB URL set without token, organization and database")
	}

	if c.Server.Prometheus && c.Server.Listen == "" {
		return errors.Wrap(ErrInvalidConfig, "Prometheus needs a listen address")
	}

	if c.Stats.Interval.Duration() <= 0 {
		return errors.Wrap(ErrInvalidConfig, "stats interval must be positive")
	}
	return nil
}
