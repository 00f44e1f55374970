package notifications

import (
	"context"
	"errors"
	"log/slog"

	"boreline/internal/events"
	"boreline/internal/logging"
	"boreline/internal/station"
	"boreline/internal/workitem"
)

// ItemResolver looks up barrels so messages can name them by serial number.
type ItemResolver interface {
	GetWorkItem(ctx context.Context, id string) (*workitem.WorkItem, error)
}

// Dispatcher turns hub events into notifications on its own goroutine.
type Dispatcher struct {
	svc    Service
	reg    *station.Registry
	items  ItemResolver
	logger *slog.Logger
	queue  chan events.Event
}

// NewDispatcher builds a dispatcher. items may be nil.
func NewDispatcher(svc Service, reg *station.Registry, items ItemResolver, logger *slog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	if svc == nil {
		svc = noopService{}
	}
	return &Dispatcher{
		svc:    svc,
		reg:    reg,
		items:  items,
		logger: logging.NewComponentLogger(logger, "notifications"),
		queue:  make(chan events.Event, buffer),
	}
}

// Append queues evt when it maps to a notification. It never blocks.
func (d *Dispatcher) Append(evt events.Event) {
	if _, ok := notificationEvent(evt); !ok {
		return
	}
	select {
	case d.queue <- evt:
	default:
		logging.WarnWithContext(d.logger, "notification queue full; event dropped", "notification_dropped",
			logging.String("event", string(evt.Type)),
			logging.WorkItemID(evt.WorkItemID),
			logging.String(logging.FieldErrorHint, "check ntfy reachability"),
			logging.String(logging.FieldImpact, "a push notification was not sent"),
		)
	}
}

// Run delivers queued notifications until ctx ends.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-d.queue:
			d.deliver(ctx, evt)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt events.Event) {
	kind, ok := notificationEvent(evt)
	if !ok {
		return
	}
	payload := d.payloadFor(ctx, evt)
	if err := d.svc.Publish(ctx, kind, payload); err != nil {
		if errors.Is(err, context.Canceled) {
			d.logger.Debug("daemon shutting down, notification not sent", logging.String("event", string(kind)))
			return
		}
		logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
			logging.String("event", string(kind)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_server and ntfy_topic"),
			logging.String(logging.FieldImpact, "a push notification was not sent"),
		)
	}
}

func notificationEvent(evt events.Event) (Event, bool) {
	switch evt.Type {
	case events.OperationCompleted:
		if evt.Terminal() {
			return EventReadyToShip, true
		}
	case events.OperationReleased:
		return EventClaimReleased, true
	case events.ItemQuarantined:
		return EventQuarantined, true
	}
	return "", false
}

func (d *Dispatcher) payloadFor(ctx context.Context, evt events.Event) Payload {
	payload := Payload{
		"serialNumber": evt.WorkItemID,
		"status":       evt.Status,
		"reason":       evt.Notes,
		"actor":        evt.ActorID,
	}
	if d.reg != nil && evt.StationID != 0 {
		if st, err := d.reg.Get(evt.StationID); err == nil {
			payload["station"] = st.Name
		}
	}
	if d.items != nil && evt.WorkItemID != "" {
		item, err := d.items.GetWorkItem(ctx, evt.WorkItemID)
		if err == nil && item != nil {
			payload["serialNumber"] = item.SerialNumber
			payload["caliber"] = item.Attributes.Caliber
		}
	}
	return payload
}
