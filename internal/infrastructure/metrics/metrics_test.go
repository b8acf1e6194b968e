package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticlesChat/internal/domain"
)

type fixedModel struct {
	out string
	err error
}

func (m fixedModel) Generate(context.Context, []domain.ChatMessage) (string, error) {
	return m.out, m.err
}

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.RequestFinished(domain.KindNone, false, time.Second)
	r.RequestFinished(domain.KindNone, true, time.Second)
	r.RequestFinished(domain.KindDataUnavailable, false, time.Millisecond)
	r.RankerDegraded("unparseable")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("ok", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("ok", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues("DataUnavailable", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rankerDegraded.WithLabelValues("unparseable")))
}

func TestInstrumentModel(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	ok := InstrumentModel("ranker", fixedModel{out: "[]"}, r)
	failing := InstrumentModel("answer", fixedModel{err: errors.New("boom")}, r)

	out, err := ok.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)

	_, err = failing.Generate(context.Background(), nil)
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelCalls.WithLabelValues("ranker", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.modelCalls.WithLabelValues("answer", "error")))
}

func TestInstrumentModelWithoutObserver(t *testing.T) {
	t.Parallel()

	model := fixedModel{out: "x"}
	assert.Equal(t, model, InstrumentModel("ranker", model, nil))
}

func TestHandlerServesMetrics(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.RankerDegraded("model_error")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `articleschat_ranker_degraded_total{reason="model_error"} 1`)
}
