// SPDX-License-Identifier: MIT
package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	err := counter.Write(metric)
	require.NoError(t, err)
	return metric.GetCounter().GetValue()
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	err := gauge.Write(metric)
	require.NoError(t, err)
	return metric.GetGauge().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.WithLabelValues(labels...))
}

func TestRecordRun(t *testing.T) {
	before := getCounterVecValue(t, runsTotal, "cli", "success")
	RecordRun("cli", nil, 120*time.Millisecond)
	after := getCounterVecValue(t, runsTotal, "cli", "success")
	assert.Equal(t, before+1, after)

	beforeFail := getCounterVecValue(t, runsTotal, "api", "failure")
	RecordRun("api", errors.New("boom"), time.Second)
	afterFail := getCounterVecValue(t, runsTotal, "api", "failure")
	assert.Equal(t, beforeFail+1, afterFail)
}

func TestRecordRunUnknownMode(t *testing.T) {
	before := getCounterVecValue(t, runsTotal, "unknown", "success")
	RecordRun("cron", nil, time.Millisecond)
	after := getCounterVecValue(t, runsTotal, "unknown", "success")
	assert.Equal(t, before+1, after)
}

func TestRecordRowCounts(t *testing.T) {
	beforeMasked := getCounterVecValue(t, rowsTotal, "masked")
	beforeDropped := getCounterVecValue(t, rowsTotal, "dropped")

	RecordRowCounts(100, 5, 3, 0)

	assert.Equal(t, beforeMasked+100, getCounterVecValue(t, rowsTotal, "masked"))
	assert.Equal(t, beforeDropped+3, getCounterVecValue(t, rowsTotal, "dropped"))
}

func TestIncStrategyApplied(t *testing.T) {
	tests := []struct {
		spec string
		want string
	}{
		{"round:2", "round"},
		{"donut:50m,200m", "donut"},
		{"sphere-gauss:0,100m", "sphere-gauss"},
		{"offset:1,1+round:2", "chain"},
		{"", "none"},
		{"identity", "none"},
		{"teleport:1", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			before := getCounterVecValue(t, strategyAppliedTotal, tt.want)
			IncStrategyApplied(tt.spec)
			after := getCounterVecValue(t, strategyAppliedTotal, tt.want)
			assert.Equal(t, before+1, after)
		})
	}
}

func TestRecordFenceDecisions(t *testing.T) {
	beforeMasked := getCounterVecValue(t, fenceDecisionsTotal, "drop-outside", "masked")
	beforeKept := getCounterVecValue(t, fenceDecisionsTotal, "drop-outside", "kept")
	beforeDropped := getCounterVecValue(t, fenceDecisionsTotal, "drop-outside", "dropped")

	RecordFenceDecisions("drop-outside", 40, 0, 7)

	assert.Equal(t, beforeMasked+40, getCounterVecValue(t, fenceDecisionsTotal, "drop-outside", "masked"))
	assert.Equal(t, beforeKept, getCounterVecValue(t, fenceDecisionsTotal, "drop-outside", "kept"))
	assert.Equal(t, beforeDropped+7, getCounterVecValue(t, fenceDecisionsTotal, "drop-outside", "dropped"))
}

func TestIncStoreOp(t *testing.T) {
	before := getCounterVecValue(t, storeOpsTotal, "badger", "get", "hit")
	IncStoreOp("badger", "get", "hit")
	after := getCounterVecValue(t, storeOpsTotal, "badger", "get", "hit")
	assert.Equal(t, before+1, after)
}

func TestSetStoreEntries(t *testing.T) {
	SetStoreEntries("memory", 42)
	value := getGaugeValue(t, storeEntries.WithLabelValues("memory"))
	assert.Equal(t, float64(42), value)
}

func TestObserveHTTPRequest(t *testing.T) {
	before := getCounterVecValue(t, httpRequestsTotal, "/v1/anonymize", "POST", "200")
	ObserveHTTPRequest("/v1/anonymize", "POST", 200, 35*time.Millisecond)
	after := getCounterVecValue(t, httpRequestsTotal, "/v1/anonymize", "POST", "200")
	assert.Equal(t, before+1, after)
}

func TestIncHTTPRejected(t *testing.T) {
	before := getCounterVecValue(t, httpRejectedTotal, "rate_limit")
	IncHTTPRejected("rate_limit")
	after := getCounterVecValue(t, httpRejectedTotal, "rate_limit")
	assert.Equal(t, before+1, after)
}

func TestIncWatchFile(t *testing.T) {
	before := getCounterVecValue(t, watchFilesTotal, "processed")
	IncWatchFile("processed")
	after := getCounterVecValue(t, watchFilesTotal, "processed")
	assert.Equal(t, before+1, after)
}

func TestSetWatchQueueDepth(t *testing.T) {
	SetWatchQueueDepth(7)
	assert.Equal(t, float64(7), getGaugeValue(t, watchQueueDepth))
	SetWatchQueueDepth(0)
	assert.Equal(t, float64(0), getGaugeValue(t, watchQueueDepth))
}

func TestNormalizeStrategyLabel(t *testing.T) {
	assert.Equal(t, "cell", normalizeStrategyLabel("CELL:12"))
	assert.Equal(t, "within-circle", normalizeStrategyLabel(" within-circle:100m "))
	assert.Equal(t, "chain", normalizeStrategyLabel("round:2+cell:12"))
	assert.Equal(t, "unknown", normalizeStrategyLabel("rot13"))
}
