package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/metrics"
)

func dispatch(m *metrics.Collector, endpoint string, err error) (any, error) {
	ctx := core.NewBaseContext(context.Background(), nil)
	ctx.Set(core.EndpointKey, endpoint)
	return m.Middleware()(ctx, func() (any, error) { return "ok", err })
}

func scrape(t *testing.T, m *metrics.Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestCollector_CountsOutcomes(t *testing.T) {
	m := metrics.New()

	res, err := dispatch(m, "Users.Show", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", res, "result passes through")
	_, _ = dispatch(m, "Users.Show", nil)
	_, err = dispatch(m, "Users.Show", errors.New("boom"))
	assert.EqualError(t, err, "boom")

	body := scrape(t, m)
	assert.Contains(t, body, `composer_dispatch_total{endpoint="Users.Show",outcome="ok"} 2`)
	assert.Contains(t, body, `composer_dispatch_total{endpoint="Users.Show",outcome="error"} 1`)
	assert.Contains(t, body, `composer_dispatch_duration_seconds_count{endpoint="Users.Show"} 3`)
	assert.Contains(t, body, "go_goroutines")
}

func TestCollector_IsolatedRegistries(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	_, _ = dispatch(a, "A.Run", nil)

	assert.NotContains(t, scrape(t, b), `endpoint="A.Run"`)
}

func TestCollector_ImplementsMiddlewareHandler(t *testing.T) {
	var _ core.MiddlewareHandler = metrics.New()
}
