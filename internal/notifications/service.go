package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"boreline/internal/config"
)

const userAgent = "Boreline-Go/0.1.0"

// Event names a notification.
type Event string

const (
	EventReadyToShip   Event = "ready_to_ship"
	EventClaimReleased Event = "claim_released"
	EventQuarantined   Event = "quarantined"
	EventDaemonStarted Event = "daemon_started"
	EventDaemonStopped Event = "daemon_stopped"
	EventTest          Event = "test"
)

// Payload carries event details. Known keys: serialNumber, station, status,
// reason, actor, kind, version.
type Payload map[string]any

// Service defines the notification surface exposed to daemon components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: endpointFor(cfg.Notifications.NtfyServer, topic),
		client:   client,
		enabled: map[Event]bool{
			EventReadyToShip:   cfg.Notifications.ReadyToShip,
			EventClaimReleased: cfg.Notifications.Releases,
			EventQuarantined:   cfg.Notifications.Quarantine,
			EventDaemonStarted: cfg.Notifications.Daemon,
			EventDaemonStopped: cfg.Notifications.Daemon,
			EventTest:          true,
		},
	}
}

// endpointFor joins the server and topic. A topic that is already a URL is
// used as-is.
func endpointFor(server, topic string) string {
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return strings.TrimRight(strings.TrimSpace(server), "/") + "/" + strings.TrimLeft(topic, "/")
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, data Payload) (payload, bool) {
	serial := data.text("serialNumber", "unknown barrel")
	switch event {
	case EventReadyToShip:
		message := fmt.Sprintf("✅ Ready to ship: %s", serial)
		if caliber := data.text("caliber", ""); caliber != "" {
			message = fmt.Sprintf("%s (%s)", message, caliber)
		}
		return payload{
			title:   "Boreline - Ready to Ship",
			message: message,
			tags:    []string{"boreline", "ship", "completed"},
		}, true
	case EventClaimReleased:
		message := fmt.Sprintf("🔓 Claim released: %s at %s", serial, data.text("station", "unknown station"))
		if actor := data.text("actor", ""); actor != "" {
			message += " by " + actor
		}
		if reason := data.text("reason", ""); reason != "" {
			message += "\nReason: " + reason
		}
		return payload{
			title:   "Boreline - Claim Released",
			message: message,
			tags:    []string{"boreline", "claim", "released"},
		}, true
	case EventQuarantined:
		status := data.text("status", "HOLD")
		message := fmt.Sprintf("⚠️ %s moved to %s at %s", serial, status, data.text("station", "unknown station"))
		if reason := data.text("reason", ""); reason != "" {
			message += "\nReason: " + reason
		}
		return payload{
			title:    "Boreline - Quarantined",
			message:  message,
			tags:     []string{"boreline", "quarantine", strings.ToLower(status)},
			priority: "high",
		}, true
	case EventDaemonStarted:
		return payload{
			title:   "Boreline - Daemon Started",
			message: fmt.Sprintf("Daemon started (%s)", data.text("version", "dev")),
			tags:    []string{"boreline", "daemon", "started"},
		}, true
	case EventDaemonStopped:
		return payload{
			title:   "Boreline - Daemon Stopped",
			message: "Daemon stopped",
			tags:    []string{"boreline", "daemon", "stopped"},
		}, true
	case EventTest:
		return payload{
			title:    "Boreline - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"boreline", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func (p Payload) text(key, fallback string) string {
	if p == nil {
		return fallback
	}
	value, ok := p[key]
	if !ok || value == nil {
		return fallback
	}
	text := strings.TrimSpace(fmt.Sprint(value))
	if text == "" {
		return fallback
	}
	return text
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
