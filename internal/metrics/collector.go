// Package metrics records per-generation time series of evolution runs and
// exports live run state to Prometheus.
package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/models"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// Collector collects time-series metrics during a run
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	endTime   time.Time

	// metric name -> label key -> points
	timeSeries map[string]map[string][]*models.MetricPoint
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		startTime:  time.Now(),
		timeSeries: make(map[string]map[string][]*models.MetricPoint),
	}
}

// Start marks the start of metric collection
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
}

// Stop marks the end of metric collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Record records a metric value at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := labelKey(labels)
	if c.timeSeries[name] == nil {
		c.timeSeries[name] = make(map[string][]*models.MetricPoint)
	}
	c.timeSeries[name][key] = append(c.timeSeries[name][key], &models.MetricPoint{
		Timestamp: timestamp,
		Name:      name,
		Value:     value,
		Labels:    copyLabels(labels),
	})
}

// RecordNow records a metric value at the current time
func (c *Collector) RecordNow(name string, value float64, labels map[string]string) {
	c.Record(name, value, time.Now(), labels)
}

// GetTimeSeries returns a copy of the points of a metric
func (c *Collector) GetTimeSeries(name string, labels map[string]string) []*models.MetricPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.timeSeries[name][labelKey(labels)]
	if points == nil {
		return nil
	}
	result := make([]*models.MetricPoint, len(points))
	for i, p := range points {
		cp := *p
		cp.Labels = copyLabels(p.Labels)
		result[i] = &cp
	}
	return result
}

// GetAggregation returns aggregated statistics for a metric, or nil if it
// has no points.
func (c *Collector) GetAggregation(name string, labels map[string]string) *models.Aggregation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return calculateAggregation(c.timeSeries[name][labelKey(labels)])
}

// GetSummary returns a summary of all collected metrics
func (c *Collector) GetSummary() *models.MetricsSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := &models.MetricsSummary{
		StartTime:    c.startTime,
		EndTime:      c.endTime,
		Duration:     c.endTime.Sub(c.startTime),
		Metrics:      make(map[string][]float64),
		Aggregations: make(map[string]*models.Aggregation),
	}

	for name, labelMap := range c.timeSeries {
		var all []*models.MetricPoint
		for _, key := range sortedKeys(labelMap) {
			all = append(all, labelMap[key]...)
		}
		values := make([]float64, len(all))
		for i, p := range all {
			values[i] = p.Value
		}
		summary.Metrics[name] = values
		if agg := calculateAggregation(all); agg != nil {
			summary.Aggregations[name] = agg
		}
	}
	return summary
}

// GetMetricNames returns all metric names that have been collected, sorted
func (c *Collector) GetMetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.timeSeries)
}

// Clear clears all collected metrics
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeSeries = make(map[string]map[string][]*models.MetricPoint)
	c.startTime = time.Now()
	c.endTime = time.Time{}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// labelKey creates a key from labels for map lookup
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	var b strings.Builder
	for _, k := range sortedKeys(labels) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
		b.WriteByte(',')
	}
	return b.String()
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// calculateAggregation calculates aggregated statistics from metric points
func calculateAggregation(points []*models.MetricPoint) *models.Aggregation {
	if len(points) == 0 {
		return nil
	}

	values := make([]float64, len(points))
	sum := 0.0
	for i, p := range points {
		values[i] = p.Value
		sum += p.Value
	}
	sort.Float64s(values)

	return &models.Aggregation{
		Count:  int64(len(values)),
		Sum:    sum,
		Min:    values[0],
		Max:    values[len(values)-1],
		Mean:   utils.Mean(values),
		StdDev: utils.StdDev(values),
		P50:    utils.Percentile(values, 50),
		P95:    utils.Percentile(values, 95),
		P99:    utils.Percentile(values, 99),
	}
}
