package main

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v2"

	"github.com/starshine-sys/guildcache/cmd/guildcache/bot"
	"github.com/starshine-sys/guildcache/cmd/guildcache/config"
	"github.com/starshine-sys/guildcache/common"
	"github.com/starshine-sys/guildcache/common/log"
)

var app = &cli.App{
	Name:    "guildcache",
	Usage:   "Discord guild state cache",
	Version: common.Version(),

	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "config.toml",
			Usage:   "Path to the configuration file",
			EnvVars: []string{"GUILDCACHE_CONFIG"},
		},
	},

	Commands: []*cli.Command{
		bot.Command,
		config.Command,
	},
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
