package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/pevans/kufarwatch/config"
	"github.com/pevans/kufarwatch/logging"
)

const longHelp = `
Check a Kufar listing page once and send a Telegram message for every
listing that wasn't there on the previous run.

The first run against an empty state file only records the current
listings. Run it on a schedule (cron, CI) to get notified about new ones.

Required environment variables:
  URL                 Kufar page to monitor
  TELEGRAM_BOT_TOKEN  Telegram bot token from @BotFather
  TELEGRAM_CHAT_ID    Your Telegram chat ID from @userinfobot

A .env file in the working directory is loaded first when present.
`

var exampleUsage = strings.TrimSpace(`
  kufarwatch
  kufarwatch --config ./kufarwatch.yaml --dry-run
  kufarwatch known
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// options holds flag values that override configuration.
type options struct {
	configPath string
	stateDSN   string
	dryRun     bool
}

// loadConfig reads configuration from the environment and the config file,
// then applies flag overrides.
func (o *options) loadConfig(flags *pflag.FlagSet, validate bool) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}

	load := config.Resolve
	if validate {
		load = config.Load
	}
	cfg, err := load(os.Getenv, path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("state") {
		cfg.Storage.DSN = o.stateDSN
	}

	return cfg, nil
}

func main() {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	log := logging.Default()
	opts := &options{}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "kufarwatch",
		Short:         "Notify about new Kufar listings via Telegram",
		Long:          strings.TrimSpace(longHelp),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.Flags(), true)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cfg, opts.dryRun)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config file ($KUFARWATCH_CONFIG)")
	root.PersistentFlags().StringVar(&opts.stateDSN, "state", "", "state file or database path ($KUFARWATCH_STATE_DSN)")
	root.Flags().BoolVar(&opts.dryRun, "dry-run", false, "log notifications instead of sending them")

	root.AddCommand(newKnownCommand(opts))

	if err := root.ExecuteContext(ctx); err != nil {
		var missing *config.MissingSettingError
		if errors.As(err, &missing) {
			log.Error().Err(err).Msg("configuration error")
			fmt.Fprintln(os.Stderr, "Please set this as a GitHub Secret or in your .env file.")
		} else {
			log.Error().Msgf("kufarwatch: %+v", err)
		}
		os.Exit(1)
	}
}
