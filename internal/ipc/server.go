package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"hopper/internal/api"
	"hopper/internal/logging"
	"hopper/internal/logs"
)

// Backend is the daemon surface the IPC service drives. daemonrun
// implements it; tests substitute fakes.
type Backend interface {
	Status(ctx context.Context) api.StatusSnapshot
	SetLongRunning(ctx context.Context, enabled bool) (bool, error)
	PathPreview(ctx context.Context, prefix, name, extension string, forceASCII bool) (path, sanitized string, err error)
	SanitizeName(name string, forceASCII bool) string
	TitleList(ctx context.Context, query string, limit int) ([]api.TitleRow, error)
	Preferences(ctx context.Context) (api.Preferences, error)
	SetPreference(ctx context.Context, name string, enabled bool) (api.Preferences, error)
	TestNotification(ctx context.Context) error
	LogPath() string
	Shutdown(ctx context.Context)
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, backend Backend, logger *slog.Logger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("ipc server requires a backend")
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

	rpcServer := rpc.NewServer()
	srv := &service{backend: backend, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Hopper", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
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
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun hopper stop"))
	}
}

type service struct {
	backend Backend
	logger  *slog.Logger
	ctx     context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.backend.Status(s.ctx)
	return nil
}

func (s *service) SetLongRunning(req LongRunRequest, resp *LongRunResponse) error {
	s.log().Debug("long-running toggle requested", logging.Bool("enabled", req.Enabled))
	current, err := s.backend.SetLongRunning(s.ctx, req.Enabled)
	if err != nil {
		return err
	}
	resp.LongRunning = current
	s.log().Info("long-running mode toggled via IPC",
		logging.String(logging.FieldEventType, "long_running_toggle"),
		logging.Bool("enabled", current))
	return nil
}

func (s *service) PathPreview(req PathPreviewRequest, resp *PathPreviewResponse) error {
	path, sanitized, err := s.backend.PathPreview(s.ctx, req.Prefix, req.Name, req.Extension, req.ForceASCII)
	if err != nil {
		return err
	}
	resp.Path = path
	resp.Sanitized = sanitized
	return nil
}

func (s *service) SanitizePreview(req SanitizeRequest, resp *SanitizeResponse) error {
	resp.Sanitized = s.backend.SanitizeName(req.Name, req.ForceASCII)
	return nil
}

func (s *service) TitleList(req TitleListRequest, resp *TitleListResponse) error {
	titles, err := s.backend.TitleList(s.ctx, req.Query, req.Limit)
	if err != nil {
		return err
	}
	resp.Titles = titles
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.backend.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) Prefs(_ PrefsGetRequest, resp *PrefsResponse) error {
	prefs, err := s.backend.Preferences(s.ctx)
	if err != nil {
		return err
	}
	resp.Prefs = prefs
	return nil
}

func (s *service) SetPref(req PrefsSetRequest, resp *PrefsResponse) error {
	s.log().Debug("preference update requested", logging.String("pref", req.Name))
	prefs, err := s.backend.SetPreference(s.ctx, req.Name, req.Enabled)
	if err != nil {
		return err
	}
	resp.Prefs = prefs
	s.log().Info("preference updated via IPC",
		logging.String(logging.FieldEventType, "pref_updated"),
		logging.String("pref", req.Name),
		logging.Bool("enabled", req.Enabled))
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if err := s.backend.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.log().Info("shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown_requested"))
	s.backend.Shutdown(s.ctx)
	resp.Stopping = true
	return nil
}
