package service

import (
	"testing"

	promdto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/hostel-api/pkg/errors"
)

func counterValue(t *testing.T, metrics *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if labelsMatch(metric.GetLabel(), labels) {
				if metric.GetCounter() != nil {
					return metric.GetCounter().GetValue()
				}
				return metric.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*promdto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func TestMetricsServiceLedgerOutcomes(t *testing.T) {
	metrics := NewMetricsService()

	metrics.RecordLedgerOperation(LedgerOpAllocate, nil)
	metrics.RecordLedgerOperation(LedgerOpAllocate, appErrors.Clone(appErrors.ErrCapacityExceeded, "room 101 is full"))
	metrics.RecordLedgerOperation(LedgerOpAllocate, appErrors.Clone(appErrors.ErrCapacityExceeded, "room 102 is full"))

	assert.Equal(t, 1.0, counterValue(t, metrics, "room_ledger_operations_total", map[string]string{"operation": LedgerOpAllocate, "outcome": "success"}))
	assert.Equal(t, 2.0, counterValue(t, metrics, "room_ledger_operations_total", map[string]string{"operation": LedgerOpAllocate, "outcome": "CAPACITY_EXCEEDED"}))
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordCacheOperation(true, 0)
	metrics.RecordCacheOperation(false, 0)

	assert.Equal(t, 0.5, counterValue(t, metrics, "cache_hit_ratio", nil))
	assert.Equal(t, 1.0, counterValue(t, metrics, "cache_hits_total", nil))
}

func TestMetricsServiceOccupancyRate(t *testing.T) {
	metrics := NewMetricsService()
	metrics.SetOccupancyRate("", 0.75)

	assert.Equal(t, 0.75, counterValue(t, metrics, "hostel_occupancy_rate", map[string]string{"hostel": "all"}))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	assert.NotPanics(t, func() {
		metrics.RecordLedgerOperation(LedgerOpVacate, nil)
		metrics.SetOccupancyRate("", 0.5)
		metrics.ObserveHTTPRequest("GET", "/", 200, 0)
	})
}
