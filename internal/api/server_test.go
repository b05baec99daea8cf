package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/ad-params/internal/ad"
	"github.com/ducminhle1904/ad-params/internal/monitoring"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

func newTestServer(t *testing.T, cfg ad.Config) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg.Logger = zerolog.Nop()
	if cfg.Mode == 0 {
		cfg.Mode = params.ModeInlineDefaults
	}
	resolver, err := ad.NewResolver(cfg)
	require.NoError(t, err)

	health := monitoring.NewHealthChecker(cfg.Mode.String(), "")
	health.RecordLoad(nil)
	return NewServer(resolver, health, zerolog.Nop())
}

func do(t *testing.T, s *Server, method, url string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, nil)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestGetParams(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	var body struct {
		Key      string            `json:"key"`
		Strategy ad.StrategyParams `json:"strategy"`
		Sets     map[string]struct {
			Origins map[string]string `json:"origins"`
		} `json:"sets"`
	}
	w := do(t, s, http.MethodGet, "/api/params/eurusd/M15", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AD/EURUSD/M15", body.Key)
	assert.Equal(t, -4, body.Strategy.SignalOpenMethod)
	assert.Equal(t, 24, body.Strategy.SignalOpenFilter)
	assert.Equal(t, "symbol", body.Sets["strategy"].Origins["signal_open_method"])
	assert.Equal(t, "timeframe", body.Sets["strategy"].Origins["price_profit_level"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGetParams_IntervalAlias(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	w := do(t, s, http.MethodGet, "/api/params/EURUSD/4h", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetParams_UnknownTimeframe(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	w := do(t, s, http.MethodGet, "/api/params/EURUSD/H5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetParams_InvalidSet(t *testing.T) {
	s := newTestServer(t, ad.Config{
		Mode:  params.ModeUserInput,
		Input: map[ad.Scope]params.Layer{ad.ScopeStrategy: {ad.LotSize: params.Float(-1)}},
	})

	w := do(t, s, http.MethodGet, "/api/params/EURUSD/H1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "lot_size")
}

func TestGetParams_OptimizeMode(t *testing.T) {
	s := newTestServer(t, ad.Config{
		Mode:  params.ModeOptimize,
		Sweep: map[ad.Scope]params.SweepSpec{ad.ScopeStrategy: {ad.SignalOpenLevel: {Min: 1, Max: 3, Step: 1}}},
	})

	w := do(t, s, http.MethodGet, "/api/params/EURUSD/H1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Total  int `json:"total"`
		Points []struct {
			Index    int                `json:"index"`
			Strategy map[string]float64 `json:"strategy"`
		} `json:"points"`
	}
	w = do(t, s, http.MethodGet, "/api/sweep/EURUSD/H1?offset=1&limit=5", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Points, 2)
	assert.Equal(t, 1, body.Points[0].Index)
	assert.Equal(t, 2.0, body.Points[0].Strategy["signal_open_level"])
}

func TestGetSweep_BadPaging(t *testing.T) {
	s := newTestServer(t, ad.Config{
		Mode:  params.ModeOptimize,
		Sweep: map[ad.Scope]params.SweepSpec{ad.ScopeStrategy: {ad.SignalOpenLevel: {Min: 1, Max: 3, Step: 1}}},
	})

	for _, query := range []string{"offset=abc", "offset=-1", "limit=ten", "limit=0", "limit=-5", "offset=1.5"} {
		w := do(t, s, http.MethodGet, "/api/sweep/EURUSD/H1?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
		assert.Contains(t, w.Body.String(), "must be an integer", query)
	}

	var body struct {
		Points []struct {
			Index int `json:"index"`
		} `json:"points"`
	}
	w := do(t, s, http.MethodGet, "/api/sweep/EURUSD/H1?limit=5000", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body.Points, 3)
}

func TestGetSweep_WrongMode(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	w := do(t, s, http.MethodGet, "/api/sweep/EURUSD/H1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetLayers(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	var body struct {
		Layers []struct {
			Origin string `json:"origin"`
		} `json:"layers"`
	}
	w := do(t, s, http.MethodGet, "/api/layers/strategy/EURUSD/H4", &body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body.Layers, 3)
	assert.Equal(t, "default", body.Layers[0].Origin)
	assert.Equal(t, "timeframe", body.Layers[1].Origin)
	assert.Equal(t, "symbol", body.Layers[2].Origin)

	w = do(t, s, http.MethodGet, "/api/layers/portfolio/EURUSD/H4", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFields(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	type field struct {
		Scope    string   `json:"scope"`
		Name     string   `json:"name"`
		Min      *float64 `json:"min"`
		Max      *float64 `json:"max"`
		BitFlags bool     `json:"bit_flags"`
	}
	var body struct {
		Mode   string  `json:"mode"`
		Fields []field `json:"fields"`
	}
	w := do(t, s, http.MethodGet, "/api/fields", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "inline", body.Mode)
	assert.Len(t, body.Fields, 16)

	byName := make(map[string]field, len(body.Fields))
	for _, f := range body.Fields {
		byName[f.Name] = f
	}
	lot := byName["lot_size"]
	require.NotNil(t, lot.Min)
	assert.Equal(t, 0.0, *lot.Min)
	assert.Nil(t, lot.Max)
	assert.False(t, lot.BitFlags)
	assert.True(t, byName["signal_open_filter"].BitFlags)
	assert.Nil(t, byName["signal_open_level"].Min)
}

func TestGetTimeframes(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	var body struct {
		Timeframes []struct {
			Name    string `json:"name"`
			Minutes int    `json:"minutes"`
			Bar     string `json:"bar"`
		} `json:"timeframes"`
	}
	w := do(t, s, http.MethodGet, "/api/timeframes", &body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, body.Timeframes, len(params.Timeframes()))
	assert.Equal(t, "M1", body.Timeframes[0].Name)
	assert.Equal(t, 1, body.Timeframes[0].Minutes)

	minutes := make(map[string]int)
	for _, tf := range body.Timeframes {
		minutes[tf.Name] = tf.Minutes
	}
	assert.Equal(t, 240, minutes["H4"])
	assert.Equal(t, 43200, minutes["MN1"])
}

func TestHealthMetricsAndPurge(t *testing.T) {
	s := newTestServer(t, ad.Config{})

	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	do(t, s, http.MethodGet, "/api/params/EURUSD/H1", nil)
	w = do(t, s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "adparams_resolutions_total")

	w = do(t, s, http.MethodPost, "/api/cache/purge", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
