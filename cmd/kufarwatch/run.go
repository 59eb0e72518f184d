package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pevans/kufarwatch/config"
	"github.com/pevans/kufarwatch/knownset"
	"github.com/pevans/kufarwatch/listing"
	"github.com/pevans/kufarwatch/logging"
	"github.com/pevans/kufarwatch/notify"
	"github.com/pevans/kufarwatch/scraper"
	"github.com/pevans/kufarwatch/watcher"
)

// runCheck wires the components from cfg and performs a single run.
func runCheck(ctx context.Context, cfg *config.Config, dryRun bool) error {
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}

	store, err := knownset.Open(cfg.Storage.Type, cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open known listings: %w", err)
	}
	defer store.Close()

	fetcher := scraper.NewFetcher(cfg.Scraper.FetchTimeout, cfg.Scraper.UserAgent)
	fetch := func(ctx context.Context) (listing.Set, error) {
		return fetcher.ScrapeListings(ctx, cfg.URL, cfg.Scraper.Extract)
	}

	runner := watcher.NewRunner(store, fetch, newNotifier(cfg, dryRun, logger),
		watcher.WithPace(cfg.Pace),
		watcher.WithLogger(logger),
	)

	logger.Info().
		Str("url", cfg.URL).
		Str("storage", cfg.Storage.Type).
		Str("dsn", cfg.Storage.DSN).
		Msg("checking for new listings")

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", result.RunID.String()).
		Str("kind", string(result.Kind)).
		Int("found", result.Found).
		Int("new", len(result.New)).
		Int("failed", result.Failed).
		Msg("run complete")
	return nil
}

func newNotifier(cfg *config.Config, dryRun bool, logger zerolog.Logger) notify.Notifier {
	if dryRun {
		return notify.NewDryRunNotifier(logger)
	}
	return notify.NewTelegramNotifier(cfg.Telegram, logger)
}
