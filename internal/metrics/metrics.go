// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやワーカーから利用する。
type MetricsCollector interface {
	RecordDisclosureDecision(state string)
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordGateAttempt(success bool)
	RecordPressFetchSuccess(sourceID string)
	RecordPressFetchFailure(sourceID string, reason string)
	RecordPressFetchLatency(duration time.Duration)
	RecordMentionsUpserted(count int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	disclosureDecisions *prometheus.CounterVec
	loginSuccess        prometheus.Counter
	loginFail           prometheus.Counter
	gateAttempts        *prometheus.CounterVec
	pressFetchSuccess   prometheus.Counter
	pressFetchFail      prometheus.Counter
	pressFetchLatency   prometheus.Histogram
	mentionsUpserted    prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		disclosureDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_disclosure_decisions_total",
			Help: "開示判定の結果別合計数",
		}, []string{"state"}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_login_success_total",
			Help: "ログイン成功の合計数",
		}),
		loginFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_login_fail_total",
			Help: "ログイン失敗の合計数",
		}),
		gateAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_gate_attempts_total",
			Help: "パスワードゲート解錠試行の結果別合計数",
		}, []string{"result"}),
		pressFetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_press_fetch_success_total",
			Help: "プレスフィードフェッチ成功の合計数",
		}),
		pressFetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_press_fetch_fail_total",
			Help: "プレスフィードフェッチ失敗の合計数",
		}),
		pressFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "atelier_press_fetch_latency_seconds",
			Help:    "プレスフィードフェッチのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		mentionsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atelier_press_mentions_upserted_total",
			Help: "アップサートされたプレス掲載記事の合計数",
		}),
	}

	reg.MustRegister(
		c.disclosureDecisions,
		c.loginSuccess,
		c.loginFail,
		c.gateAttempts,
		c.pressFetchSuccess,
		c.pressFetchFail,
		c.pressFetchLatency,
		c.mentionsUpserted,
	)

	return c
}

// RecordDisclosureDecision は開示判定の結果（visible/blurred/locked）を記録する。
func (c *Collector) RecordDisclosureDecision(state string) {
	c.disclosureDecisions.WithLabelValues(state).Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFail.Inc()
}

// RecordGateAttempt はパスワードゲート解錠試行を記録する。
func (c *Collector) RecordGateAttempt(success bool) {
	result := "fail"
	if success {
		result = "success"
	}
	c.gateAttempts.WithLabelValues(result).Inc()
}

// RecordPressFetchSuccess はプレスフィードのフェッチ成功を記録する。
func (c *Collector) RecordPressFetchSuccess(sourceID string) {
	c.pressFetchSuccess.Inc()
}

// RecordPressFetchFailure はプレスフィードのフェッチ失敗を記録する。
func (c *Collector) RecordPressFetchFailure(sourceID string, reason string) {
	c.pressFetchFail.Inc()
}

// RecordPressFetchLatency はプレスフィードフェッチのレイテンシを記録する。
func (c *Collector) RecordPressFetchLatency(duration time.Duration) {
	c.pressFetchLatency.Observe(duration.Seconds())
}

// RecordMentionsUpserted はアップサートされた掲載記事数を記録する。
func (c *Collector) RecordMentionsUpserted(count int) {
	c.mentionsUpserted.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
