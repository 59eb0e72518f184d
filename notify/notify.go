package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pevans/kufarwatch/listing"
)

// Notifier delivers a single formatted message to one recipient. It reports
// whether the message was delivered and never returns an error; failures are
// logged by the implementation.
type Notifier interface {
	Notify(ctx context.Context, text string) bool
}

// FormatListingMessage renders the HTML message announcing a new listing.
func FormatListingMessage(l listing.Listing) string {
	var b strings.Builder
	b.WriteString("🏠 <b>Новый дом появился на Kufar!</b>\n\n")
	if l.Title != "" {
		fmt.Fprintf(&b, "%s\n", html.EscapeString(l.Title))
	}
	fmt.Fprintf(&b, "<a href='%s'>Просмотреть</a>", html.EscapeString(l.URL))
	return b.String()
}

// DryRunNotifier logs messages instead of sending them. Every call reports
// the message as undelivered.
type DryRunNotifier struct {
	logger zerolog.Logger
}

// NewDryRunNotifier creates a notifier that only logs.
func NewDryRunNotifier(logger zerolog.Logger) *DryRunNotifier {
	return &DryRunNotifier{logger: logger}
}

// Notify logs text and returns false.
func (d *DryRunNotifier) Notify(ctx context.Context, text string) bool {
	d.logger.Info().Str("text", text).Msg("dry run: notification not sent")
	return false
}
