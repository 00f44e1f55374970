package daemon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"boreline/internal/events"
	"boreline/internal/logging"
	"boreline/internal/station"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// streamCommand is sent by clients to change the stations they follow.
type streamCommand struct {
	Type      string `json:"type"`
	StationID int64  `json:"stationId"`
}

// stationSet tracks the stations a connection has joined. An empty set
// follows every station.
type stationSet struct {
	mu  sync.RWMutex
	ids map[station.ID]struct{}
}

func newStationSet() *stationSet {
	return &stationSet{ids: make(map[station.ID]struct{})}
}

func (s *stationSet) join(id station.ID) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

func (s *stationSet) leave(id station.ID) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

func (s *stationSet) accepts(evt events.Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ids) == 0 {
		return true
	}
	_, ok := s.ids[evt.StationID]
	return ok
}

func (s *apiServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	joined := newStationSet()
	if value := r.URL.Query().Get("stationId"); value != "" {
		id, err := parseStationID(value)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		joined.join(id)
	}

	// Subscribe before the handshake completes so no event published after
	// the client connects is missed.
	sub := s.daemon.hub.Subscribe(s.buffer, joined.accepts)
	defer sub.Unsubscribe()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.readCommands(ctx, cancel, conn, joined)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "daemon stopping"),
				time.Now().Add(wsWriteWait))
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				s.logger.Debug("websocket write failed", logging.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readCommands applies join-station and leave-station messages until the
// client disconnects.
func (s *apiServer) readCommands(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, joined *stationSet) {
	defer cancel()
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		var cmd streamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		switch cmd.Type {
		case "join-station":
			joined.join(station.ID(cmd.StationID))
		case "leave-station":
			joined.leave(station.ID(cmd.StationID))
		default:
			s.logger.Debug("ignoring websocket command", logging.String("type", cmd.Type))
		}
	}
}
