package config

import (
	"fmt"

	"emperror.dev/errors"
	"github.com/urfave/cli/v2"

	"github.com/starshine-sys/guildcache/bot"
)

var Command = &cli.Command{
	Name:   "check-config",
	Usage:  "Check the configuration file for errors",
	Action: run,
}

func run(c *cli.Context) error {
	conf, err := bot.ReadConfig(c.String("config"))
	if err != nil {
		return errors.Wrap(err, "invalid config")
	}

	fmt.Fprintf(c.App.Writer, "config OK\n")
	fmt.Fprintf(c.App.Writer, "  influxdb:   %v\n", conf.Auth.Influx.URL != "")
	fmt.Fprintf(c.App.Writer, "  redis:      %v\n", conf.Auth.Redis != "")
	fmt.Fprintf(c.App.Writer, "  sentry:     %v\n", conf.Auth.Sentry != "")
	fmt.Fprintf(c.App.Writer, "  api:        %q\n", conf.Server.Listen)
	fmt.Fprintf(c.App.Writer, "  prometheus: %v\n", conf.Server.Prometheus)
	fmt.Fprintf(c.App.Writer, "  log file:   %q\n", conf.Log.File)
	return nil
}
