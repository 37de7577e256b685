package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/moonbag/internal/game/engine"
	"github.com/wfunc/moonbag/internal/game/orb"
	"github.com/wfunc/moonbag/internal/game/random"
	"github.com/wfunc/moonbag/internal/offline"
	"github.com/wfunc/moonbag/internal/storage"
	"go.uber.org/zap"
)

type fixedOnline int

func (f fixedOnline) GetOnlineCount() int { return int(f) }

func gauge(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			require.NotEmpty(t, mf.GetMetric())
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestMetrics_StateCollector(t *testing.T) {
	ctx := context.Background()
	store := offline.NewStore(ctx, storage.NewMemoryStorage(), random.New(3), zap.NewNop(), offline.DefaultOptions())
	_, err := store.Start(ctx, 1)
	require.NoError(t, err)

	m := New("test", store, fixedOnline(2))

	assert.Equal(t, float64(90), gauge(t, m, "test_offline_moonrocks"))
	assert.Equal(t, float64(1), gauge(t, m, "test_offline_packs"))
	assert.Equal(t, float64(1), gauge(t, m, "test_offline_active_games"))
	assert.Equal(t, float64(2), gauge(t, m, "test_websocket_clients"))
}

func TestMetrics_ActionsAndPulls(t *testing.T) {
	m := New("", nil, nil)

	m.ObserveAction("pull", nil)
	m.ObserveAction("pull", nil)
	m.ObserveAction("pull", errors.New("boom"))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.actions.WithLabelValues("pull", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.actions.WithLabelValues("pull", "error")))

	m.ObservePull(&engine.PullResult{
		Draws: []engine.Draw{
			{Orb: orb.SingleBomb},
			{Orb: orb.Moonrock15, Earnings: 15},
		},
		Earnings: 15,
	})
	m.ObservePull(nil)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.draws.WithLabelValues("bomb")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.draws.WithLabelValues("moonrock")))
	assert.Equal(t, float64(15), testutil.ToFloat64(m.earnings))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("test", nil, nil)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/packs/:pack", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/packs/1", "/packs/2", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("/packs/:pack", "GET", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_http_requests_total")
}
