package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/tradecore/tradecore/internal/strategy"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func (s *Server) health(c *gin.Context) {
	if err := s.store.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.store.ListActiveAccounts(c.Request.Context())
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

func (s *Server) getAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	account, err := s.store.GetAccount(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) accountPerformance(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	perf, err := s.perf.AccountPerformance(c.Request.Context(), id)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

func (s *Server) accountPositions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	switch status := c.DefaultQuery("status", "open"); status {
	case "open":
		positions, err := s.store.ListOpenPositions(c.Request.Context(), id)
		if err != nil {
			s.serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"positions": positions, "count": len(positions)})
	case "closed":
		positions, err := s.store.ListClosedPositions(c.Request.Context(), id, queryLimit(c))
		if err != nil {
			s.serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"positions": positions, "count": len(positions)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be open or closed"})
	}
}

func (s *Server) accountEquity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	since, ok := querySince(c)
	if !ok {
		return
	}

	curve, err := s.store.EquityCurve(c.Request.Context(), id, since)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equity": curve, "count": len(curve)})
}

func (s *Server) recentSignals(c *gin.Context) {
	name := c.Query("strategy")
	if name != "" {
		if _, err := strategy.New(name, nil); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown strategy: " + name})
			return
		}
	}

	signals, err := s.store.RecentSignals(c.Request.Context(), name, queryLimit(c))
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals, "count": len(signals)})
}

// strategyInfo is the read-API view of one registered strategy.
type strategyInfo struct {
	Name     string        `json:"name"`
	Exchange string        `json:"exchange"`
	Interval string        `json:"interval"`
	Docs     strategy.Docs `json:"docs"`
}

func (s *Server) listStrategies(c *gin.Context) {
	names := strategy.Names()
	infos := make([]strategyInfo, 0, len(names))
	for _, name := range names {
		strat, err := strategy.New(name, nil)
		if err != nil {
			continue
		}
		info := strategyInfo{
			Name:     name,
			Exchange: strat.Exchange(),
			Interval: strat.Interval(),
		}
		info.Docs, _ = strategy.Describe(name)
		infos = append(infos, info)
	}
	c.JSON(http.StatusOK, gin.H{"strategies": infos, "count": len(infos)})
}

func (s *Server) listGroups(c *gin.Context) {
	groups, err := s.store.ListPortfolioGroups(c.Request.Context())
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "count": len(groups)})
}

func (s *Server) groupEquity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	since, ok := querySince(c)
	if !ok {
		return
	}

	bucket := c.DefaultQuery("bucket", "hour")
	switch bucket {
	case "hour", "day":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "bucket must be hour or day"})
		return
	}

	curve, err := s.store.GroupEquityCurve(c.Request.Context(), id, since, bucket)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equity": curve, "count": len(curve)})
}

func (s *Server) latestMarkets(c *gin.Context) {
	markets, err := s.store.LatestMarkets(c.Request.Context(), c.Param("asset"), queryLimit(c))
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"markets": markets, "count": len(markets)})
}

func (s *Server) latestCandles(c *gin.Context) {
	candles, err := s.store.LatestCandles(
		c.Request.Context(),
		c.DefaultQuery("exchange", strategy.VenueHyperliquid),
		c.Param("asset"),
		c.DefaultQuery("interval", "1m"),
		queryLimit(c),
	)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candles": candles, "count": len(candles)})
}

func (s *Server) latestFunding(c *gin.Context) {
	funding, err := s.store.LatestFunding(
		c.Request.Context(),
		c.DefaultQuery("exchange", strategy.VenueHyperliquid),
		c.Param("asset"),
		queryLimit(c),
	)
	if err != nil {
		s.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"funding": funding, "count": len(funding)})
}

func (s *Server) serverError(c *gin.Context, err error) {
	s.log.Error().Err(err).
		Str("request_id", c.GetString("request_id")).
		Str("path", c.Request.URL.Path).
		Msg("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// pathID parses the :id path parameter, writing a 400 on failure.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// queryLimit parses ?limit= with a sane default and cap.
func queryLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// querySince parses ?since= as RFC3339, defaulting to 7 days back.
func querySince(c *gin.Context) (time.Time, bool) {
	raw := c.Query("since")
	if raw == "" {
		return time.Now().UTC().Add(-7 * 24 * time.Hour), true
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
		return time.Time{}, false
	}
	return since, true
}
