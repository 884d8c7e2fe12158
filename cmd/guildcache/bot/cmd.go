package bot

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emperror.dev/errors"
	"github.com/getsentry/sentry-go"
	"github.com/urfave/cli/v2"

	"github.com/starshine-sys/guildcache/bot"
	"github.com/starshine-sys/guildcache/common"
	"github.com/starshine-sys/guildcache/common/log"
	"github.com/starshine-sys/guildcache/logsetup"
)

var Command = &cli.Command{
	Name:   "bot",
	Usage:  "Connect to the gateway and keep the cache up to date",
	Action: run,
}

func run(c *cli.Context) error {
	conf, err := bot.ReadConfig(c.String("config"))
	if err != nil {
		return errors.Wrap(err, "reading config")
	}

	logger, err := logsetup.SetupLogging(conf.Log)
	if err != nil {
		return errors.Wrap(err, "setting up logging")
	}
	log.Set(logger)
	defer func() {
		_ = log.Sync()
	}()

	// set up sentry
	if conf.Auth.Sentry != "" {
		log.Debug("setting up sentry")
		err := sentry.Init(sentry.ClientOptions{
			Dsn:     conf.Auth.Sentry,
			Release: common.Version(),
		})
		if err != nil {
			log.Fatalf("setting up sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)

		log.Debug("set up sentry")
	} else {
		log.Debugf("sentry DSN was not provided, not setting it up")
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b, err := bot.New(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "creating bot")
	}

	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()

		if err := b.Close(closeCtx); err != nil {
			log.Errorf("closing bot: %v", err)
		}
	}()

	log.Infof("starting guildcache %v", common.Version())
	return b.Run(ctx)
}
