// Package api exposes resolved parameters over HTTP for inspection.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/ad-params/internal/ad"
	"github.com/ducminhle1904/ad-params/internal/monitoring"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

// maxSweepPage bounds the points returned by one sweep request
const maxSweepPage = 1000

// Server wires HTTP endpoints around the resolver
type Server struct {
	Router   *gin.Engine
	Resolver *ad.Resolver
	Health   *monitoring.HealthChecker
	logger   zerolog.Logger
}

func NewServer(resolver *ad.Resolver, health *monitoring.HealthChecker, logger zerolog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	s := &Server{
		Router:   r,
		Resolver: resolver,
		Health:   health,
		logger:   logger.With().Str("component", "api").Logger(),
	}
	r.Use(s.requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", gin.WrapH(s.Health))
	s.Router.GET("/metrics", gin.WrapH(monitoring.NewMetricsHandler()))

	api := s.Router.Group("/api")
	{
		api.GET("/fields", s.getFields)
		api.GET("/timeframes", s.getTimeframes)
		api.GET("/params/:symbol/:timeframe", s.getParams)
		api.GET("/layers/:scope/:symbol/:timeframe", s.getLayers)
		api.GET("/sweep/:symbol/:timeframe", s.getSweep)
		api.POST("/cache/purge", s.purgeCache)
	}
}

// RequestIDMiddleware adds unique request ID for tracking
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("RequestID", requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("request_id", c.GetString("RequestID")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

type fieldInfo struct {
	Scope      ad.Scope     `json:"scope"`
	Name       params.Field `json:"name"`
	Kind       string       `json:"kind"`
	Default    params.Value `json:"default"`
	Constraint string       `json:"constraint,omitempty"`
	Min        *float64     `json:"min,omitempty"`
	Max        *float64     `json:"max,omitempty"`
	BitFlags   bool         `json:"bit_flags,omitempty"`
	Doc        string       `json:"doc,omitempty"`
}

func (s *Server) getFields(c *gin.Context) {
	reg := s.Resolver.Registry()
	var out []fieldInfo
	for _, scope := range ad.Scopes() {
		for _, spec := range reg.Table(scope).Specs() {
			info := fieldInfo{
				Scope: scope, Name: spec.Name, Kind: spec.Kind.String(), Default: spec.Default,
				Constraint: spec.Constraint(), BitFlags: spec.IsBitFlags(), Doc: spec.Doc,
			}
			info.Min, info.Max = spec.Bounds()
			out = append(out, info)
		}
	}
	c.JSON(http.StatusOK, gin.H{"mode": s.Resolver.Mode().String(), "fields": out})
}

func (s *Server) getTimeframes(c *gin.Context) {
	type timeframeInfo struct {
		Name    string `json:"name"`
		Minutes int    `json:"minutes"`
		Bar     string `json:"bar"`
	}
	var out []timeframeInfo
	for _, tf := range params.Timeframes() {
		d := tf.Duration()
		out = append(out, timeframeInfo{Name: tf.String(), Minutes: int(d.Minutes()), Bar: d.String()})
	}
	c.JSON(http.StatusOK, gin.H{"timeframes": out})
}

type setView struct {
	Values  map[params.Field]params.Value  `json:"values"`
	Origins map[params.Field]params.Origin `json:"origins"`
}

func viewOf(ps *params.ParameterSet) setView {
	v := setView{Values: ps.Map(), Origins: make(map[params.Field]params.Origin, ps.Len())}
	for _, f := range ps.Fields() {
		v.Origins[f] = ps.Origin(f)
	}
	return v
}

func (s *Server) getParams(c *gin.Context) {
	tf, ok := s.timeframe(c)
	if !ok {
		return
	}
	p, err := s.Resolver.Resolve(c.Request.Context(), c.Param("symbol"), tf)
	if err != nil {
		s.fail(c, err)
		return
	}
	indi, stg, err := p.Bind()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"key":       p.Strategy.Key().String(),
		"indicator": indi,
		"strategy":  stg,
		"sets": gin.H{
			string(ad.ScopeIndicator): viewOf(p.Indicator),
			string(ad.ScopeStrategy):  viewOf(p.Strategy),
		},
	})
}

func (s *Server) getLayers(c *gin.Context) {
	scope, err := ad.ParseScope(c.Param("scope"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	tf, ok := s.timeframe(c)
	if !ok {
		return
	}
	layers, err := s.Resolver.Layers(c.Request.Context(), scope, c.Param("symbol"), tf)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope, "layers": layers})
}

func (s *Server) getSweep(c *gin.Context) {
	tf, ok := s.timeframe(c)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0, 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 100, 1)
	if !ok {
		return
	}
	limit = min(limit, maxSweepPage)

	sweep, err := s.Resolver.Sweep(c.Request.Context(), c.Param("symbol"), tf)
	if err != nil {
		s.fail(c, err)
		return
	}

	type point struct {
		Index     int                           `json:"index"`
		Indicator map[params.Field]params.Value `json:"indicator,omitempty"`
		Strategy  map[params.Field]params.Value `json:"strategy,omitempty"`
		Error     string                        `json:"error,omitempty"`
	}
	var points []point
	for i := offset; i < sweep.Len() && i < offset+limit; i++ {
		p, err := sweep.At(i)
		if err != nil {
			points = append(points, point{Index: i, Error: err.Error()})
			continue
		}
		points = append(points, point{Index: i, Indicator: p.Indicator.Map(), Strategy: p.Strategy.Map()})
	}
	c.JSON(http.StatusOK, gin.H{"total": sweep.Len(), "fields": sweep.Fields(), "points": points})
}

func (s *Server) purgeCache(c *gin.Context) {
	s.Resolver.Purge()
	c.Status(http.StatusNoContent)
}

func (s *Server) timeframe(c *gin.Context) (params.Timeframe, bool) {
	tf, err := params.ParseTimeframe(c.Param("timeframe"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return 0, false
	}
	return tf, true
}

// queryInt reads an integer query parameter of at least floor, answering 400 otherwise
func queryInt(c *gin.Context, name string, def, floor int) (int, bool) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s must be an integer >= %d, got %q", name, floor, raw)})
		return 0, false
	}
	return n, true
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, params.ErrInvalidValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, params.ErrModeMismatch):
		return http.StatusConflict
	case errors.Is(err, params.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, params.ErrMissingSource):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
