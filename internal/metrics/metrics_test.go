package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/parley/pkg/errcode"
)

func TestObserve(t *testing.T) {
	before := testutil.ToFloat64(Operations.WithLabelValues("test_op", "ok"))
	Observe("test_op", nil)
	require.Equal(t, before+1, testutil.ToFloat64(Operations.WithLabelValues("test_op", "ok")))

	Observe("test_op", errcode.ErrInvalidEmoji)
	require.Equal(t, float64(1), testutil.ToFloat64(Operations.WithLabelValues("test_op", "4007")))

	Observe("test_op", errors.New("plain"))
	require.Equal(t, float64(1), testutil.ToFloat64(Operations.WithLabelValues("test_op", "1002")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	WSConnections.Set(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	require.Equal(t, 200, rec.Code)
	require.True(t, strings.Contains(body, "parley_ws_connections 3"))
}
