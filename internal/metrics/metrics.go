// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SpaceX APIのエンドポイント名（メトリクスのラベル値）。
const (
	EndpointLaunchesQuery = "launches_query"
	EndpointLaunchpad     = "launchpad"
)

// MetricsCollector はメトリクス収集のインターフェース。
// APIクライアント、一覧画面、障害境界から利用する。
type MetricsCollector interface {
	RecordFetchSuccess(endpoint string)
	RecordFetchFailure(endpoint string, reason string)
	RecordHTTPStatus(endpoint string, statusCode int)
	RecordFetchLatency(endpoint string, duration time.Duration)
	RecordLaunchesLoaded(count int)
	RecordRenderFault()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	fetchSuccess   *prometheus.CounterVec
	fetchFail      *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	launchesLoaded prometheus.Gauge
	renderFaults   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchdeck_api_fetch_success_total",
			Help: "SpaceX API呼び出し成功の合計数",
		}, []string{"endpoint"}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchdeck_api_fetch_fail_total",
			Help: "SpaceX API呼び出し失敗の合計数",
		}, []string{"endpoint", "reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "launchdeck_api_http_status_total",
			Help: "SpaceX APIのHTTPステータスコード別レスポンス数",
		}, []string{"endpoint", "status_code"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "launchdeck_api_fetch_latency_seconds",
			Help:    "SpaceX API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		launchesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "launchdeck_launches_loaded",
			Help: "一覧画面が保持している打ち上げ件数",
		}),
		renderFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "launchdeck_render_faults_total",
			Help: "障害境界が捕捉した描画障害の合計数",
		}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.httpStatus,
		c.fetchLatency,
		c.launchesLoaded,
		c.renderFaults,
	)

	return c
}

// RecordFetchSuccess はAPI呼び出し成功を記録する。
func (c *Collector) RecordFetchSuccess(endpoint string) {
	c.fetchSuccess.WithLabelValues(endpoint).Inc()
}

// RecordFetchFailure はAPI呼び出し失敗を記録する。
// reasonは "transport", "status", "decode" などの低カーディナリティな値に限る。
func (c *Collector) RecordFetchFailure(endpoint string, reason string) {
	c.fetchFail.WithLabelValues(endpoint, reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(endpoint string, statusCode int) {
	c.httpStatus.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordFetchLatency はAPI呼び出しのレイテンシを記録する。
func (c *Collector) RecordFetchLatency(endpoint string, duration time.Duration) {
	c.fetchLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordLaunchesLoaded は一覧が保持する打ち上げ件数を記録する。
func (c *Collector) RecordLaunchesLoaded(count int) {
	c.launchesLoaded.Set(float64(count))
}

// RecordRenderFault は描画障害の発生を記録する。
func (c *Collector) RecordRenderFault() {
	c.renderFaults.Inc()
}

// NopCollector は何も記録しないMetricsCollector。CLIやテストで使用する。
type NopCollector struct{}

func (NopCollector) RecordFetchSuccess(string)                {}
func (NopCollector) RecordFetchFailure(string, string)        {}
func (NopCollector) RecordHTTPStatus(string, int)             {}
func (NopCollector) RecordFetchLatency(string, time.Duration) {}
func (NopCollector) RecordLaunchesLoaded(int)                 {}
func (NopCollector) RecordRenderFault()                       {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
