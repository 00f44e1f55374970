package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"boreline/internal/api"
	"boreline/internal/config"
	"boreline/internal/events"
	"boreline/internal/failure"
	"boreline/internal/logging"
	"boreline/internal/reqctx"
	"boreline/internal/station"
)

const (
	maxBodyBytes   = 1 << 20
	maxEventWait   = 25 * time.Second
	defaultEventsN = 200
)

type apiServer struct {
	bind    string
	token   string
	buffer  int
	logger  *slog.Logger
	daemon  *Daemon
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, errors.New("api server requires config and daemon")
	}
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		token:  strings.TrimSpace(cfg.API.Token),
		buffer: cfg.Workflow.SubscriberBuffer,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.handler = srv.routes()
	return srv, nil
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)

	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/status", s.handleStatus)
	protected.HandleFunc("GET /api/stations", s.handleStations)
	protected.HandleFunc("GET /api/stations/{id}/queue", s.handleQueue)
	protected.HandleFunc("GET /api/stats", s.handleStats)

	protected.HandleFunc("GET /api/items", s.handleListItems)
	protected.HandleFunc("POST /api/items", s.handleCreateItem)
	protected.HandleFunc("GET /api/items/lookup", s.handleLookup)
	protected.HandleFunc("GET /api/items/{id}", s.handleItem)
	protected.HandleFunc("GET /api/items/{id}/history", s.handleHistory)
	protected.HandleFunc("POST /api/items/{id}/start", s.transition(s.daemon.service.Start))
	protected.HandleFunc("POST /api/items/{id}/pause", s.transition(s.daemon.service.Pause))
	protected.HandleFunc("POST /api/items/{id}/resume", s.transition(s.daemon.service.Resume))
	protected.HandleFunc("POST /api/items/{id}/complete", s.transition(s.daemon.service.Complete))
	protected.HandleFunc("POST /api/items/{id}/release", s.transition(s.daemon.service.Release))
	protected.HandleFunc("POST /api/items/{id}/quarantine", s.transition(s.daemon.service.Quarantine))

	protected.HandleFunc("GET /api/actors", s.handleActors)
	protected.HandleFunc("POST /api/actors", s.handleRegisterActor)
	protected.HandleFunc("POST /api/actors/{id}/assignments", s.handleAssign)
	protected.HandleFunc("POST /api/actors/{id}/status", s.handleActorStatus)

	protected.HandleFunc("GET /api/events", s.handleEvents)
	protected.HandleFunc("GET /api/events/ws", s.handleEventStream)

	mux.Handle("/api/", authMiddleware(s.token, protected))
	return withRequestID(mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      maxEventWait + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check api.bind and that the port is free"),
				logging.String(logging.FieldImpact, "HTTP clients cannot reach the daemon"),
			)
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *apiServer) address() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(reqctx.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Health(r.Context()))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleStations(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.service.Stations())
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	id, err := parseStationID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.daemon.service.Queue(r.Context(), int64(id))
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.daemon.service.Stats(r.Context())
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	resp, err := s.daemon.service.Items(r.Context(), r.URL.Query()["status"])
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req api.CreateItemRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.daemon.service.CreateItem(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *apiServer) handleLookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		s.writeError(w, r, failure.Invalid("code", "required"))
		return
	}
	resp, err := s.daemon.service.Lookup(r.Context(), code)
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleItem(w http.ResponseWriter, r *http.Request) {
	resp, err := s.daemon.service.Item(r.Context(), r.PathValue("id"))
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.daemon.service.History(r.Context(), r.PathValue("id"))
	s.respond(w, r, resp, err)
}

type transitionFunc func(ctx context.Context, itemID string, req api.TransitionRequest) (api.ItemResponse, error)

func (s *apiServer) transition(op transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.TransitionRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		resp, err := op(r.Context(), r.PathValue("id"), req)
		s.respond(w, r, resp, err)
	}
}

func (s *apiServer) handleActors(w http.ResponseWriter, r *http.Request) {
	resp, err := s.daemon.service.Actors(r.Context())
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleRegisterActor(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterActorRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.daemon.service.RegisterActor(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *apiServer) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req api.AssignmentRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.daemon.service.Assign(r.Context(), r.PathValue("id"), req)
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleActorStatus(w http.ResponseWriter, r *http.Request) {
	var req api.ActorStatusRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.daemon.service.SetActorActive(r.Context(), r.PathValue("id"), req)
	s.respond(w, r, resp, err)
}

func (s *apiServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = defaultEventsN
	}
	filter, err := stationFilter(query.Get("stationId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wait := parseWait(query.Get("wait"))

	hub := s.daemon.hub
	var (
		batch []events.Event
		next  uint64
	)
	if wait > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), wait)
		batch, next, err = hub.Fetch(ctx, since, limit, true)
		cancel()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			s.writeError(w, r, err)
			return
		}
	} else {
		batch, next, _ = hub.Fetch(r.Context(), since, limit, false)
	}

	filtered := make([]events.Event, 0, len(batch))
	for _, evt := range batch {
		if filter == nil || filter(evt) {
			filtered = append(filtered, evt)
		}
	}
	s.writeJSON(w, http.StatusOK, api.EventsResponse{Events: filtered, Next: next})
}

// parseWait accepts seconds ("10") or a duration ("1500ms"). Waits are
// capped below the server write timeout.
func parseWait(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	var wait time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		wait = time.Duration(secs) * time.Second
	} else if parsed, err := time.ParseDuration(value); err == nil {
		wait = parsed
	} else if strings.EqualFold(value, "true") {
		wait = maxEventWait
	}
	if wait > maxEventWait {
		wait = maxEventWait
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}

func stationFilter(value string) (events.Filter, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	id, err := parseStationID(value)
	if err != nil {
		return nil, err
	}
	return events.ForStation(id), nil
}

func parseStationID(value string) (station.ID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, failure.Invalid("stationId", "must be an integer")
	}
	return station.ID(id), nil
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return failure.Invalid("body", "malformed JSON: "+err.Error())
	}
	return nil
}

func (s *apiServer) respond(w http.ResponseWriter, r *http.Request, payload any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := api.FromError(err)
	status := api.HTTPStatus(failure.Kind(body.Kind))
	if status >= http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("kind", body.Kind),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the daemon log for the failing operation"),
			logging.String(logging.FieldImpact, "the request was not applied"),
		)
	}
	s.writeJSON(w, status, body)
}
