package monitoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector_BasicCounters(t *testing.T) {
	m := NewMetricsCollector()
	m.IncrementProcessedObjects()
	m.IncrementProcessedObjects()
	m.IncrementFailedOperations()
	assert.Equal(t, int64(2), m.TotalObjects())
	assert.Equal(t, 50.0, m.ErrorRate())
}

func TestMetricsCollector_ErrorRate_NoObjects(t *testing.T) {
	m := NewMetricsCollector()
	assert.Equal(t, 0.0, m.ErrorRate())
}

func TestMetricsCollector_AverageProcessingTime(t *testing.T) {
	m := NewMetricsCollector()
	m.IncrementProcessedObjects()
	m.IncrementProcessedObjects()
	m.RecordProcessingTime(100 * time.Millisecond)
	m.RecordProcessingTime(300 * time.Millisecond)
	assert.Equal(t, 200*time.Millisecond, m.AverageProcessingTime())
}

func TestMetricsCollector_AverageProcessingTime_NoObjects(t *testing.T) {
	m := NewMetricsCollector()
	assert.Equal(t, time.Duration(0), m.AverageProcessingTime())
}

func TestMetricsCollector_ErrorCountByType(t *testing.T) {
	m := NewMetricsCollector()
	m.IncrementErrorCount("ParseError")
	m.IncrementErrorCount("ParseError")
	m.IncrementErrorCount("SchemaError")

	metrics := m.GetMetrics()
	errCounts := metrics["error_count"].(map[string]int64)
	assert.Equal(t, int64(2), errCounts["ParseError"])
	assert.Equal(t, int64(1), errCounts["SchemaError"])
}

func TestMetricsCollector_MemoryAndGoroutines(t *testing.T) {
	m := NewMetricsCollector()
	m.SetMemoryUsage(1024)
	m.SetGoroutineCount(7)
	assert.Equal(t, int64(1024), m.MemoryUsage())

	metrics := m.GetMetrics()
	assert.Equal(t, int64(7), metrics["goroutine_count"])
}

func TestMetricsCollector_ConcurrentIncrements(t *testing.T) {
	m := NewMetricsCollector()
	const n = 100
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			m.IncrementProcessedObjects()
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	assert.Equal(t, int64(n), m.TotalObjects())
}
