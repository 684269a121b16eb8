// Package api serves the read-only REST API over the trading data:
// accounts, positions, signals, performance and market data.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tradecore/tradecore/internal/db"
	"github.com/tradecore/tradecore/internal/metrics"
	"github.com/tradecore/tradecore/internal/models"
)

// Store is the read surface the API exposes.
type Store interface {
	Health(ctx context.Context) error
	ListActiveAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListOpenPositions(ctx context.Context, accountID int64) ([]models.Position, error)
	ListClosedPositions(ctx context.Context, accountID int64, limit int) ([]models.Position, error)
	RecentSignals(ctx context.Context, strategy string, limit int) ([]models.Signal, error)
	EquityCurve(ctx context.Context, accountID int64, since time.Time) ([]models.MarkToMarket, error)
	ListPortfolioGroups(ctx context.Context) ([]models.PortfolioGroup, error)
	GroupEquityCurve(ctx context.Context, groupID int64, since time.Time, bucket string) ([]db.GroupEquityPoint, error)
	LatestCandles(ctx context.Context, exchange, asset, interval string, limit int) ([]models.Candle, error)
	LatestFunding(ctx context.Context, exchange, asset string, limit int) ([]models.FundingSnapshot, error)
	LatestMarkets(ctx context.Context, asset string, limit int) ([]models.PolymarketMarket, error)
}

// PerformanceProvider computes account statistics.
type PerformanceProvider interface {
	AccountPerformance(ctx context.Context, accountID int64) (*metrics.Performance, error)
}

// Server is the REST API server.
type Server struct {
	store  Store
	perf   PerformanceProvider
	log    zerolog.Logger
	engine *gin.Engine
}

// NewServer wires the routes and middleware.
func NewServer(store Store, perf PerformanceProvider, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{store: store, perf: perf, log: log, engine: engine}

	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(log))
	engine.Use(cors.Default())

	engine.GET("/health", s.health)

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/accounts", s.listAccounts)
		v1.GET("/accounts/:id", s.getAccount)
		v1.GET("/accounts/:id/performance", s.accountPerformance)
		v1.GET("/accounts/:id/positions", s.accountPositions)
		v1.GET("/accounts/:id/equity", s.accountEquity)
		v1.GET("/signals", s.recentSignals)
		v1.GET("/strategies", s.listStrategies)
		v1.GET("/groups", s.listGroups)
		v1.GET("/groups/:id/equity", s.groupEquity)
		v1.GET("/markets/:asset", s.latestMarkets)
		v1.GET("/candles/:asset", s.latestCandles)
		v1.GET("/funding/:asset", s.latestFunding)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("API server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
