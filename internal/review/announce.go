package review

import (
	"context"
	"time"

	"github.com/mrz1836/reviewapp/internal/constants"
	"github.com/mrz1836/reviewapp/internal/domain"
	"github.com/mrz1836/reviewapp/internal/logging"
	"github.com/mrz1836/reviewapp/internal/notify"
	"github.com/mrz1836/reviewapp/internal/transport"
)

// Notifier sends the deployment announcement to every configured channel.
// Failures are logged and dropped.
type Notifier struct {
	announcers []notify.Announcer
	async      bool

	// drain bounds how long the wait function blocks for asynchronous
	// deliveries.
	drain time.Duration
}

// NewNotifier creates a Notifier. With async set, announcers that support
// it are dispatched without waiting for delivery.
func NewNotifier(async bool, announcers ...notify.Announcer) *Notifier {
	return &Notifier{announcers: announcers, async: async, drain: constants.DefaultHTTPTimeout}
}

type pendingDelivery struct {
	name   string
	future *transport.Future
}

// Announce delivers a to every announcer in order. The returned function
// blocks until asynchronous deliveries have logged their outcome and returns
// the number of failed deliveries; call it before the invocation log is
// closed. A cancelled ctx aborts the deliveries themselves, so their failure
// lines still land in the log. Deliveries still running after the drain
// period are logged as abandoned and counted as failed.
func (n *Notifier) Announce(ctx context.Context, a domain.Announcement, log *logging.InvocationLog) func() int {
	failed := 0
	var pending []pendingDelivery
	asyncFailed := make(chan struct{}, len(n.announcers))

	for _, ann := range n.announcers {
		if async, ok := ann.(notify.AsyncAnnouncer); ok && n.async {
			name := async.Name()
			pending = append(pending, pendingDelivery{name: name, future: async.AnnounceAsync(ctx, a, func(err error) {
				if reportDelivery(log, name, err) {
					asyncFailed <- struct{}{}
				}
			})})
			continue
		}
		if reportDelivery(log, ann.Name(), ann.Announce(ctx, a)) {
			failed++
		}
	}

	return func() int {
		deadline := time.NewTimer(n.drain)
		defer deadline.Stop()
		expired := false
		for _, p := range pending {
			if expired {
				log.Infof("gave up waiting for %s delivery", p.name)
				failed++
				continue
			}
			select {
			case <-p.future.Done():
			case <-deadline.C:
				expired = true
				log.Infof("gave up waiting for %s delivery", p.name)
				failed++
			}
		}
		for {
			select {
			case <-asyncFailed:
				failed++
			default:
				return failed
			}
		}
	}
}

// reportDelivery logs the outcome of one delivery and reports whether it failed.
func reportDelivery(log *logging.InvocationLog, name string, err error) bool {
	if err == nil {
		log.Infof("posted message to %s", name)
		return false
	}
	log.Infof("Caught error posting message to %s", name)
	log.Info(err.Error())
	return true
}
