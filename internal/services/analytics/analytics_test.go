package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SalesPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) *HTTPServiceBase {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPServiceBase(srv.URL, time.Second)
}

func TestForecastSource(t *testing.T) {
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Path {
		case "/models/prophet/fitted":
			if body["date"] == "2018-06-01" {
				_, _ = w.Write([]byte(`{"found":true,"value":1500.5}`))
				return
			}
			_, _ = w.Write([]byte(`{"found":false}`))
		case "/models/prophet/forecast":
			assert.Equal(t, float64(7), body["steps"])
			_, _ = w.Write([]byte(`{"point":2100,"lower":1900,"upper":2300}`))
		default:
			http.NotFound(w, r)
		}
	})
	src := NewHTTPForecastSource(base, "prophet")
	ctx := context.Background()

	v, ok, err := src.FittedValue(ctx, time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1500.5, v)

	_, ok, err = src.FittedValue(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	f, err := src.Forecast(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2100.0, f.Point)
	assert.Equal(t, models.ConfidenceInterval{Lower: 1900, Upper: 2300}, f.Interval)

	_, err = src.Forecast(ctx, 0)
	assert.Error(t, err)
}

func TestForecastSourceServerError(t *testing.T) {
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := NewHTTPForecastSource(base, "sarima").Forecast(context.Background(), 3)
	assert.ErrorContains(t, err, "sarima forecast")
}

func TestProbeDealClassifier(t *testing.T) {
	t.Run("loaded", func(t *testing.T) {
		base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/models/deal_classifier":
				_, _ = w.Write([]byte(`{"loaded":true,"version":"xgb-3"}`))
			case "/models/deal_classifier/predict":
				var req classifierReq
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Len(t, req.Values, len(req.Features))
				_, _ = w.Write([]byte(`{"win_probability":0.82}`))
			}
		})
		art, err := ProbeDealClassifier(context.Background(), base)
		require.NoError(t, err)
		require.NotNil(t, art)
		assert.Equal(t, "xgb-3", art.Version())

		p, err := art.Score(context.Background(), models.DealFeatureVector{Amount: 1000})
		require.NoError(t, err)
		assert.Equal(t, 0.82, p)
	})

	t.Run("not loaded", func(t *testing.T) {
		base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"loaded":false}`))
		})
		art, err := ProbeDealClassifier(context.Background(), base)
		require.NoError(t, err)
		assert.Nil(t, art)
	})
}

func TestAnomalyDetector(t *testing.T) {
	base := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req anomalyReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_, _ = w.Write([]byte(`{"is_anomaly":` + map[bool]string{true: "true", false: "false"}[req.Value > 10000] + `}`))
	})
	d := NewHTTPAnomalyDetector(base)

	yes, err := d.IsAnomaly(context.Background(), time.Now(), 50000)
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := d.IsAnomaly(context.Background(), time.Now(), 100)
	require.NoError(t, err)
	assert.False(t, no)
}
