package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pevans/kufarwatch/knownset"
	"github.com/pevans/kufarwatch/listing"
	"github.com/pevans/kufarwatch/notify"
)

// DefaultPace is the pause between consecutive notifications.
const DefaultPace = 500 * time.Millisecond

// FetchFunc retrieves the listings currently on the monitored page.
type FetchFunc func(ctx context.Context) (listing.Set, error)

// SleepFunc pauses between notifications. It returns early if ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration)

// Kind distinguishes the two shapes a run can take.
type Kind string

const (
	// KindBaseline records the current listings without notifying.
	KindBaseline Kind = "baseline"
	// KindComparison notifies about listings missing from the known set.
	KindComparison Kind = "comparison"
)

// RunResult summarizes a completed run.
type RunResult struct {
	RunID       uuid.UUID
	Kind        Kind
	LoadStatus  knownset.Status
	Known       int     // known listings before the run
	Found       int     // listings on the page
	New         []int64 // new listing IDs in notification order
	Delivered   int
	Failed      int
	Saved       bool
	Interrupted bool // ctx was cancelled before every new listing was notified
}

// Runner performs one check of the monitored page.
type Runner struct {
	store    knownset.Store
	fetch    FetchFunc
	notifier notify.Notifier
	pace     time.Duration
	sleep    SleepFunc
	logger   zerolog.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithPace sets the pause between notifications.
func WithPace(d time.Duration) Option {
	return func(r *Runner) { r.pace = d }
}

// WithSleep replaces the function used to pause between notifications.
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) { r.sleep = fn }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a runner. By default it paces notifications by
// DefaultPace and logs nothing.
func NewRunner(store knownset.Store, fetch FetchFunc, notifier notify.Notifier, opts ...Option) *Runner {
	r := &Runner{
		store:    store,
		fetch:    fetch,
		notifier: notifier,
		pace:     DefaultPace,
		sleep:    sleepContext,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run loads the known set, fetches the page and either records a baseline
// (no prior state) or notifies about each new listing and persists the
// merged set. Fetch and save failures are returned; nothing is persisted
// when the fetch fails. Notification failures are logged and counted but
// don't stop the run. If ctx is cancelled while notifying, the listings
// notified so far are saved and an error is returned.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{RunID: uuid.New()}
	logger := r.logger.With().Str("run_id", result.RunID.String()).Logger()

	loaded := r.store.Load(ctx)
	result.LoadStatus = loaded.Status
	result.Known = len(loaded.Set)

	switch {
	case loaded.Status == knownset.StatusCorrupt:
		logger.Warn().Err(loaded.Err).Msg("known listings are unreadable, starting fresh")
		return r.baseline(ctx, logger, result)
	case len(loaded.Set) == 0:
		logger.Info().Str("status", loaded.Status.String()).Msg("no known listings, capturing baseline")
		return r.baseline(ctx, logger, result)
	default:
		logger.Info().Int("known", result.Known).Msg("loaded known listings")
		return r.compare(ctx, logger, loaded.Set, result)
	}
}

func (r *Runner) baseline(ctx context.Context, logger zerolog.Logger, result *RunResult) (*RunResult, error) {
	result.Kind = KindBaseline

	current, err := r.fetch(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch listings: %w", err)
	}
	result.Found = len(current)

	if err := r.store.Save(ctx, current); err != nil {
		return result, fmt.Errorf("failed to save baseline: %w", err)
	}
	result.Saved = true

	logger.Info().Int("saved", len(current)).Msg("baseline saved, new listings will be reported from the next run")
	return result, nil
}

func (r *Runner) compare(ctx context.Context, logger zerolog.Logger, known listing.Set, result *RunResult) (*RunResult, error) {
	result.Kind = KindComparison

	current, err := r.fetch(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch listings: %w", err)
	}
	result.Found = len(current)
	logger.Info().Int("found", result.Found).Msg("fetched listings")

	fresh := current.Difference(known)
	result.New = fresh.IDsDescending()

	if len(result.New) == 0 {
		logger.Info().Msg("no new listings")
	} else {
		logger.Info().Int("new", len(result.New)).Msg("found new listings")
	}

	// Only listings whose notification ran to completion are marked known.
	// An interrupted send may not have gone out, so it's left for the next
	// run.
	processed := listing.Set{}
	for i, id := range result.New {
		if i > 0 && r.pace > 0 {
			r.sleep(ctx, r.pace)
		}
		if ctx.Err() != nil {
			break
		}

		l := fresh[id]
		logger.Info().Int64("id", id).Str("url", l.URL).Msg("new listing")
		delivered := r.notifier.Notify(ctx, notify.FormatListingMessage(l))
		if !delivered && ctx.Err() != nil {
			break
		}

		processed.Add(l)
		if delivered {
			result.Delivered++
		} else {
			result.Failed++
			logger.Error().Int64("id", id).Msg("notification failed, listing still marked as known")
		}
	}

	interrupted := ctx.Err()
	if interrupted != nil {
		result.Interrupted = true
		logger.Warn().
			Int("processed", len(processed)).
			Int("skipped", len(result.New)-len(processed)).
			Msg("run interrupted, saving only processed listings")
	}

	// The save must finish even when the run was interrupted, or delivered
	// listings would be reported again.
	merged := known.Merge(processed)
	if err := r.store.Save(context.WithoutCancel(ctx), merged); err != nil {
		return result, fmt.Errorf("failed to save known listings: %w", err)
	}
	result.Saved = true

	if interrupted != nil {
		return result, fmt.Errorf("run interrupted after %d of %d new listings: %w",
			len(processed), len(result.New), interrupted)
	}

	logger.Info().
		Int("total", len(merged)).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Msg("updated known listings")
	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
