package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/perpfeed/internal/domain"
	"github.com/alanyoungcy/perpfeed/internal/server/handler"
	"github.com/alanyoungcy/perpfeed/internal/server/middleware"
	"github.com/alanyoungcy/perpfeed/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Archives, Sync and Status are optional.
type Handlers struct {
	Health   *handler.HealthHandler
	Trader   *handler.TraderHandler
	Exchange *handler.ExchangeHandler
	Wallet   *handler.WalletHandler
	Archives *handler.ArchiveHandler
	Sync     *handler.SyncHandler
	Status   *handler.StatusHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// limiter and wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/trader/{address}/trades", handlers.Trader.Trades)
	mux.HandleFunc("GET /api/trader/{address}/stats", handlers.Trader.Stats)
	mux.HandleFunc("GET /api/trader/{address}/history", handlers.Trader.History)
	mux.HandleFunc("GET /api/exchanges/{exchange}/trades", handlers.Trader.ExchangeTrades)

	// Raw upstream passthrough and per-exchange normalized envelopes.
	mux.HandleFunc("GET /api/exchanges/flash", handlers.Exchange.FlashRaw)
	mux.HandleFunc("GET /api/exchanges/jupiter", handlers.Exchange.JupiterRaw)
	mux.HandleFunc("GET /api/flash/trades", handlers.Exchange.FlashTrades)
	mux.HandleFunc("GET /api/jupiter/trades", handlers.Exchange.JupiterTrades)

	mux.HandleFunc("GET /api/wallet-check", handlers.Wallet.Check)

	if handlers.Archives != nil {
		mux.HandleFunc("GET /api/trader/{address}/archives", handlers.Archives.List)
		mux.HandleFunc("GET /api/trader/{address}/archives/{date}", handlers.Archives.Get)
	}
	if handlers.Sync != nil {
		mux.HandleFunc("POST /api/sync/trigger", handlers.Sync.Trigger)
	}
	if handlers.Status != nil {
		mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	}

	mux.Handle("GET /metrics", promhttp.Handler())
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Innermost first: auth, rate limit, logging, request id, CORS.
	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health", "/metrics")(h)
	if limiter != nil {
		h = middleware.RateLimit(limiter, middleware.DefaultBuckets, logger)(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
