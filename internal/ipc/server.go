package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"boreline/internal/api"
	"boreline/internal/daemon"
	"boreline/internal/events"
	"boreline/internal/logging"
	"boreline/internal/station"
)

// ServiceName is the RPC receiver name registered by the server.
const ServiceName = "Boreline"

const maxEventWait = 30 * time.Second

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	svc *service
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
		svc:       srv,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.track(conn, true)
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.track(c, false)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file. Connected clients are
// dropped.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun boreline daemon stop"))
	}
}

// OnShutdown registers the function the Shutdown RPC calls after stopping
// the daemon, typically the cancel func of the process run context.
func (s *Server) OnShutdown(fn func()) {
	s.svc.mu.Lock()
	s.svc.shutdown = fn
	s.svc.mu.Unlock()
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context

	mu       sync.Mutex
	shutdown func()
}

func (s *service) ops() *api.Service {
	return s.daemon.Service()
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *StopResponse) error {
	s.logger.Info("daemon shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	s.daemon.Stop()
	resp.Stopped = true
	s.mu.Lock()
	fn := s.shutdown
	s.mu.Unlock()
	if fn != nil {
		// Let the response reach the client before the server closes.
		time.AfterFunc(100*time.Millisecond, fn)
	}
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Status(s.ctx)
	return nil
}

func (s *service) Stations(_ StationsRequest, resp *api.StationsResponse) error {
	*resp = s.ops().Stations()
	return nil
}

func (s *service) Queue(req QueueRequest, resp *api.QueueResponse) error {
	out, err := s.ops().Queue(s.ctx, req.StationID)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Items(req ItemsRequest, resp *api.ItemListResponse) error {
	out, err := s.ops().Items(s.ctx, req.Kinds)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) CreateItem(req api.CreateItemRequest, resp *api.ItemResponse) error {
	out, err := s.ops().CreateItem(s.ctx, req)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	s.logger.Info("item created via IPC",
		logging.String(logging.FieldEventType, "item_created"),
		logging.WorkItemID(out.Item.ID),
		logging.String("serial_number", out.Item.SerialNumber))
	return nil
}

func (s *service) Item(req ItemRequest, resp *api.ItemDetail) error {
	out, err := s.ops().Item(s.ctx, req.ID)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Lookup(req LookupRequest, resp *api.ItemResponse) error {
	out, err := s.ops().Lookup(s.ctx, req.Code)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) History(req ItemRequest, resp *api.HistoryResponse) error {
	out, err := s.ops().History(s.ctx, req.ID)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Operation(req OperationRequest, resp *api.ItemResponse) error {
	out, err := s.ops().Apply(s.ctx, req.Action, req.ItemID, req.Request)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *api.Stats) error {
	out, err := s.ops().Stats(s.ctx)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Actors(_ ActorsRequest, resp *api.ActorsResponse) error {
	out, err := s.ops().Actors(s.ctx)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) RegisterActor(req api.RegisterActorRequest, resp *api.Actor) error {
	out, err := s.ops().RegisterActor(s.ctx, req)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Assign(req AssignRequest, resp *api.Assignment) error {
	out, err := s.ops().Assign(s.ctx, req.ActorID, req.Request)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) SetActorActive(req ActorStatusRequest, resp *api.Actor) error {
	out, err := s.ops().SetActorActive(s.ctx, req.ActorID, req.Request)
	if err != nil {
		return api.EncodeError(err)
	}
	*resp = out
	return nil
}

func (s *service) Events(req EventsRequest, resp *api.EventsResponse) error {
	hub := s.daemon.Hub()
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait > maxEventWait {
		wait = maxEventWait
	}

	ctx := s.ctx
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}
	batch, next, err := hub.Fetch(ctx, req.Since, req.Limit, wait > 0)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		if errors.Is(err, context.Canceled) {
			resp.Next = next
			return nil
		}
		return api.EncodeError(err)
	}

	resp.Next = next
	resp.Events = make([]events.Event, 0, len(batch))
	for _, evt := range batch {
		if req.StationID != 0 && evt.StationID != station.ID(req.StationID) {
			continue
		}
		resp.Events = append(resp.Events, evt)
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
