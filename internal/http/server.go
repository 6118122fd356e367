package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"oba/internal/core"
	"oba/internal/log"
	"oba/internal/middleware/security"
	"oba/internal/middleware/trace"
	"oba/internal/services"
)

// Server serves the ledger API.
type Server struct {
	http.Server
	ledger *services.Ledger
	logger *log.Logger
	trace  *trace.Middleware

	proxies *ProxyList

	shutdownOnce sync.Once
}

// Option customises a Server.
type Option func(*Server)

// WithTrustedProxies sets the peers allowed to report the client address.
// DefaultTrustedProxies is used otherwise.
func WithTrustedProxies(p *ProxyList) Option {
	return func(s *Server) {
		if p != nil {
			s.proxies = p
		}
	}
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger *services.Ledger, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}

	s := &Server{
		ledger:  ledger,
		logger:  logger.WithComponent(log.ComponentHTTP),
		proxies: defaultProxies,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.trace = trace.NewMiddleware(s.proxies.ClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /export", s.handleExport)

	registerResource[core.Account, core.AccountForm](mux, "/account", ledger.Accounts)
	registerResource[core.Bucket, core.BucketForm](mux, "/bucket", ledger.Buckets)
	registerResource[core.Transaction, core.TransactionForm](mux, "/transaction", ledger.Transactions)
	registerResource[core.Fill, core.FillForm](mux, "/fill", ledger.Fills)
	s.registerScoped(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = s.trace.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Metrics returns the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}

// Shutdown gracefully shuts down the server. Only the first call has effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		m := s.trace.GetMetrics()
		s.logger.InfoContext(ctx, "HTTP server shutting down",
			"total_requests", m.TotalRequests,
			"server_errors", m.ServerErrors)
		err = s.Server.Shutdown(ctx)
	})
	return err
}
