// Package notify delivers deployment announcements.
//
// Announcements are best effort. An Announcer reports delivery failures to
// its caller, which logs them and carries on; nothing here retries.
package notify

import (
	"context"

	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/transport"
)

// Announcer delivers one announcement synchronously.
type Announcer interface {
	// Name identifies the channel in log lines, e.g. "slack".
	Name() string
	Announce(ctx context.Context, a domain.Announcement) error
}

// AsyncAnnouncer is implemented by announcers that can dispatch without
// blocking. done runs once delivery finishes, before the Future resolves.
type AsyncAnnouncer interface {
	Announcer
	AnnounceAsync(ctx context.Context, a domain.Announcement, done func(error)) *transport.Future
}
