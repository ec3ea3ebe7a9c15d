package server

import (
	"net/http"
	"runtime"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
)

// RoxServer is the HTTP evaluation service. It serves the Connect
// protocol with a CBOR codec.
type RoxServer struct {
	pool       *WorkerPool
	executions *ExecutionStore
	service    *RoxService
	mux        *http.ServeMux
	log        commonlog.Logger

	stopSweeper func()
}

// ServerOption configures a RoxServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	workers      int
	trace        bool
	executionTTL time.Duration
}

// WithWorkers sets how many programs may execute concurrently.
// Default: runtime.NumCPU().
func WithWorkers(n int) ServerOption {
	return func(c *serverConfig) { c.workers = n }
}

// WithTrace traces every execution, as if each request set Trace.
func WithTrace(on bool) ServerOption {
	return func(c *serverConfig) { c.trace = on }
}

// WithExecutionTTL sets how long recorded executions are kept after their
// last access. Default: 30 minutes.
func WithExecutionTTL(ttl time.Duration) ServerOption {
	return func(c *serverConfig) { c.executionTTL = ttl }
}

// New creates a RoxServer.
func New(opts ...ServerOption) *RoxServer {
	cfg := &serverConfig{
		workers:      runtime.NumCPU(),
		executionTTL: 30 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pool := NewWorkerPool(cfg.workers)
	executions := NewExecutionStore()

	s := &RoxServer{
		pool:       pool,
		executions: executions,
		service:    NewRoxService(pool, executions, cfg.trace),
		mux:        http.NewServeMux(),
		log:        commonlog.GetLogger("rox.server"),
	}

	codec := connect.WithCodec(cborCodec{})
	s.mux.Handle(InterpretProcedure, connect.NewUnaryHandler(InterpretProcedure, s.service.Interpret, codec))
	s.mux.Handle(TokenizeProcedure, connect.NewUnaryHandler(TokenizeProcedure, s.service.Tokenize, codec))
	s.mux.Handle(DisassembleProcedure, connect.NewUnaryHandler(DisassembleProcedure, s.service.Disassemble, codec))
	s.mux.Handle(GetExecutionProcedure, connect.NewUnaryHandler(GetExecutionProcedure, s.service.GetExecution, codec))

	// Sweep every 5 minutes
	s.stopSweeper = executions.StartSweeper(5*time.Minute, cfg.executionTTL)

	return s
}

// Handler returns the HTTP handler serving all procedures.
func (s *RoxServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *RoxServer) ListenAndServe(addr string) error {
	s.log.Noticef("rox service listening on %s", addr)
	s.log.Noticef("  Connect (CBOR): http://%s%s", addr, InterpretProcedure)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the server's background work.
func (s *RoxServer) Stop() {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	s.pool.Stop()
}
