package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/psimmons86/playdates-server/internal/events"
	"github.com/psimmons86/playdates-server/internal/notifier"
)

// dispatcher fans a domain outcome out to live subscribers and the push
// gateway. Pushes run in the background; a gateway failure is logged and
// never surfaces to the request that triggered it.
type dispatcher struct {
	bus      *events.Bus
	notifier notifier.Notifier
	log      zerolog.Logger
}

func (d *dispatcher) fanout(evt events.Event, n *notifier.Notification) {
	if d.bus != nil {
		d.bus.Publish(evt)
	}
	if d.notifier == nil || n == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.notifier.Notify(ctx, *n); err != nil {
			d.log.Warn().Err(err).
				Str("type", n.Type).
				Str("recipient", n.RecipientID).
				Msg("push notification failed")
		}
	}()
}
