// Package exporter 定期輪詢裝置並輸出 Prometheus 指標與 MQTT 狀態訊息
package exporter

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	vigor "vigor-modbus"
)

const namespace = "vigor"

// Metrics 裝置指標
//
// 使用獨立的 Registry，不與預設 Registry 共用。
type Metrics struct {
	registry *prometheus.Registry

	temperature *prometheus.GaugeVec
	pressure    *prometheus.GaugeVec
	airflow     *prometheus.GaugeVec
	bypass      prometheus.Gauge
	filterDirty prometheus.Gauge
	controlMode prometheus.Gauge
	info        *prometheus.GaugeVec

	polls        prometheus.Counter
	pollErrors   prometheus.Counter
	pollDuration prometheus.Histogram
	lastSuccess  prometheus.Gauge

	mu         sync.RWMutex
	lastStatus *vigor.Status
	lastSerial string
}

// NewMetrics 建立並註冊指標
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "temperature_celsius",
			Help:      "Air temperature (°C)",
		}, []string{"stream"}),
		pressure: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pressure_pascal",
			Help:      "Duct pressure (Pa)",
		}, []string{"stream"}),
		airflow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "airflow_m3h",
			Help:      "Air flow (m3/h)",
		}, []string{"stream", "kind"}),
		bypass: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bypass_status",
			Help:      "Bypass valve status code (0 initializing, 1 opening, 2 closing, 3 open, 4 closed)",
		}),
		filterDirty: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "filter_dirty",
			Help:      "1 if the filter needs replacement",
		}),
		controlMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "control_mode",
			Help:      "Airflow control source (0 wall unit, 1 modbus manual, 2 modbus preset)",
		}),
		info: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "info",
			Help:      "Device information",
		}, []string{"serial_number"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Total number of status polls",
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_errors_total",
			Help:      "Total number of failed status polls",
		}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a full status poll",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful poll",
		}),
	}

	m.registry.MustRegister(
		m.temperature,
		m.pressure,
		m.airflow,
		m.bypass,
		m.filterDirty,
		m.controlMode,
		m.info,
		m.polls,
		m.pollErrors,
		m.pollDuration,
		m.lastSuccess,
	)

	return m
}

// Registry 取得指標 Registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe 以一次成功的輪詢結果更新指標
func (m *Metrics) Observe(s vigor.Status, took time.Duration) {
	m.polls.Inc()
	m.pollDuration.Observe(took.Seconds())
	m.lastSuccess.SetToCurrentTime()

	m.observeStream("supply", s.Supply)
	m.observeStream("extract", s.Extract)
	m.bypass.Set(float64(s.Bypass))
	if s.Filter.Dirty() {
		m.filterDirty.Set(1)
	} else {
		m.filterDirty.Set(0)
	}
	m.controlMode.Set(float64(s.AirflowMode.Control))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSerial != s.SerialNumber {
		if m.lastSerial != "" {
			m.info.DeleteLabelValues(m.lastSerial)
		}
		m.info.WithLabelValues(s.SerialNumber).Set(1)
		m.lastSerial = s.SerialNumber
	}
	m.lastStatus = &s
}

func (m *Metrics) observeStream(stream string, a vigor.AirStream) {
	m.temperature.WithLabelValues(stream).Set(a.Temperature)
	m.pressure.WithLabelValues(stream).Set(float64(a.Pressure))
	m.airflow.WithLabelValues(stream, "preset").Set(float64(a.AirflowPreset))
	m.airflow.WithLabelValues(stream, "actual").Set(float64(a.AirflowActual))
}

// ObserveError 記錄一次失敗的輪詢
func (m *Metrics) ObserveError(took time.Duration) {
	m.polls.Inc()
	m.pollErrors.Inc()
	m.pollDuration.Observe(took.Seconds())
}

// LastStatus 取得最近一次成功的狀態
func (m *Metrics) LastStatus() (vigor.Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastStatus == nil {
		return vigor.Status{}, false
	}
	return *m.lastStatus, true
}

// Handler 建立 HTTP 處理器
//
//	<endpoint>  Prometheus 格式
//	/status     最近一次狀態 (JSON)
//	/health     存活檢查
//	/ready      至少成功輪詢一次後才就緒
func (m *Metrics) Handler(endpoint string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(endpoint, promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", m.handleStatus)
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/ready", m.handleReady)
	return mux
}

// handleStatus 處理 /status 請求
func (m *Metrics) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := m.LastStatus()
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "no data"})
		return
	}
	json.NewEncoder(w).Encode(status)
}

// handleHealth 處理 /health 請求
func (m *Metrics) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// handleReady 處理 /ready 請求
func (m *Metrics) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, ok := m.LastStatus(); !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
