package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ReportSubmitted()
	m.ReportSubmitted()
	m.UpstreamError("Reportes Diarios")
	m.PhotoUpload(true)
	m.PhotoUpload(false)
	m.Export("pdf")
	m.ObserveRequest("GET", "GET /api/reportes", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reportsSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamErrors.WithLabelValues("Reportes Diarios")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.photoUploads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.photoUploads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exports.WithLabelValues("pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/reportes", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ReportSubmitted()
		m.UpstreamError("x")
		m.PhotoUpload(true)
		m.Export("xlsx")
		m.ObserveRequest("GET", "/", 200, time.Second)
	})
}
