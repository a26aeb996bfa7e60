package services

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxLogEntries を超えた古いリクエストログは破棄します（7日分の集計に十分な量）。
const maxLogEntries = 50000

// 予測結果の分類
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeNotLoaded   = "not_loaded"
	OutcomeError       = "error"
)

// LogEntry は単一のリクエストログを表します。
type LogEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"statusCode"`
	ResponseTime time.Duration `json:"responseTime"`
}

// MonitoringService はリクエストログの保持とPrometheusメトリクスを担当します。
type MonitoringService struct {
	mu   sync.RWMutex
	logs []LogEntry
	loc  *time.Location

	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	predictedValues prometheus.Histogram
}

// NewMonitoringService は専用レジストリを持つMonitoringServiceを生成します。
func NewMonitoringService() *MonitoringService {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.UTC
	}

	s := &MonitoringService{
		logs:     make([]LogEntry, 0),
		loc:      loc,
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oilsales_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oilsales_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oilsales_predictions_total",
			Help: "Prediction requests by outcome",
		}, []string{"outcome"}),
		predictedValues: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "oilsales_prediction_value",
			Help:    "Distribution of predicted volume_sales",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
	s.registry.MustRegister(
		s.requests,
		s.requestDuration,
		s.predictions,
		s.predictedValues,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

// Registry はメトリクスのレジストリを返します。
func (s *MonitoringService) Registry() *prometheus.Registry {
	return s.registry
}

// MetricsHandler は /metrics 用のハンドラを返します。
func (s *MonitoringService) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// LogRequest はリクエストを記録します。
func (s *MonitoringService) LogRequest(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if over := len(s.logs) - maxLogEntries; over > 0 {
		s.logs = append(s.logs[:0:0], s.logs[over:]...)
	}
}

// RecordPrediction は予測1件の結果を記録します。value は成功時のみ使います。
func (s *MonitoringService) RecordPrediction(outcome string, value float64) {
	s.predictions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		s.predictedValues.Observe(value)
	}
}

// LoggingMiddleware はリクエスト情報を記録するGinミドルウェアです。
// 管理系・監視系・/metrics はダッシュボードのログから除外します。
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		s.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		s.requestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		path := c.Request.URL.Path
		if path == "/metrics" || strings.HasPrefix(path, "/api/v1/admin") || strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}
		s.LogRequest(LogEntry{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   status,
			ResponseTime: elapsed,
		})
	}
}

// DashboardData はダッシュボードに表示するための集計済みデータです。
type DashboardData struct {
	RequestsOverTime []map[string]interface{} `json:"requestsOverTime"`
	Endpoints        map[string]int           `json:"endpoints"`
	StatusCodes      []map[string]interface{} `json:"statusCodes"`
	AvgResponseTimes []map[string]interface{} `json:"avgResponseTimes"`
	RecentErrors     []LogEntry               `json:"recentErrors"`
}

// GetDashboardData は直近 periodHours 時間のログを集計します。
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	if periodHours < 1 {
		periodHours = 1
	}
	now := time.Now().In(s.loc)
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	s.mu.RLock()
	window := make([]LogEntry, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			window = append(window, entry)
		}
	}
	s.mu.RUnlock()

	return DashboardData{
		RequestsOverTime: s.hourlyCounts(window, now, periodHours),
		Endpoints:        endpointCounts(window),
		StatusCodes:      statusClasses(window),
		AvgResponseTimes: averageResponseTimes(window),
		RecentErrors:     recentServerErrors(window, 10),
	}
}

// hourlyCounts は古い順に1時間ごとのリクエスト数を返します。
func (s *MonitoringService) hourlyCounts(window []LogEntry, now time.Time, hours int) []map[string]interface{} {
	counts := make(map[int64]int)
	for _, entry := range window {
		counts[entry.Timestamp.In(s.loc).Truncate(time.Hour).Unix()]++
	}
	out := make([]map[string]interface{}, hours)
	for i := 0; i < hours; i++ {
		bucket := now.Add(-time.Duration(hours-1-i) * time.Hour).Truncate(time.Hour)
		out[i] = map[string]interface{}{
			"time":     bucket.Format("15:00"),
			"requests": counts[bucket.Unix()],
		}
	}
	return out
}

func endpointCounts(window []LogEntry) map[string]int {
	out := make(map[string]int)
	for _, entry := range window {
		out[entry.Path]++
	}
	return out
}

func statusClasses(window []LogEntry) []map[string]interface{} {
	names := []string{"2xx Success", "4xx Client Error", "5xx Server Error"}
	counts := make([]int, len(names))
	for _, entry := range window {
		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			counts[0]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			counts[1]++
		case entry.StatusCode >= 500:
			counts[2]++
		}
	}
	out := make([]map[string]interface{}, len(names))
	for i, name := range names {
		out[i] = map[string]interface{}{"name": name, "value": counts[i]}
	}
	return out
}

func averageResponseTimes(window []LogEntry) []map[string]interface{} {
	sum := make(map[string]time.Duration)
	n := make(map[string]int)
	for _, entry := range window {
		sum[entry.Path] += entry.ResponseTime
		n[entry.Path]++
	}
	paths := make([]string, 0, len(sum))
	for p := range sum {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]map[string]interface{}, 0, len(paths))
	for _, p := range paths {
		out = append(out, map[string]interface{}{
			"endpoint":     p,
			"responseTime": sum[p].Milliseconds() / int64(n[p]),
		})
	}
	return out
}

// recentServerErrors は新しい順に最大 limit 件の5xxを返します。
func recentServerErrors(window []LogEntry, limit int) []LogEntry {
	out := make([]LogEntry, 0)
	for i := len(window) - 1; i >= 0 && len(out) < limit; i-- {
		if window[i].StatusCode >= 500 {
			out = append(out, window[i])
		}
	}
	return out
}
