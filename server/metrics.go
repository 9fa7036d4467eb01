package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 记录服务运行期的关键指标（Prometheus）
// 标签取值有限，不按玩家打标签
type Metrics struct {
	tickDuration prometheus.Histogram
	tickCount    prometheus.Counter
	players      prometheus.Gauge
	connections  prometheus.Gauge
	rejected     *prometheus.CounterVec
	inbound      *prometheus.CounterVec
	sendDropped  prometheus.Counter
	chatLimited  prometheus.Counter
}

// NewMetrics 在给定注册表上注册全部指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "quadrocore_tick_duration_seconds",
			Help:    "Time spent resolving and broadcasting one tick",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),
		tickCount: f.NewCounter(prometheus.CounterOpts{
			Name: "quadrocore_ticks_total",
			Help: "Ticks executed",
		}),
		players: f.NewGauge(prometheus.GaugeOpts{
			Name: "quadrocore_players",
			Help: "Players currently in the world",
		}),
		connections: f.NewGauge(prometheus.GaugeOpts{
			Name: "quadrocore_connections_active",
			Help: "Currently open WebSocket connections",
		}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quadrocore_admission_rejected_total",
			Help: "Connections or joins rejected at admission",
		}, []string{"reason"}),
		inbound: f.NewCounterVec(prometheus.CounterOpts{
			Name: "quadrocore_inbound_messages_total",
			Help: "Inbound protocol messages by type",
		}, []string{"type"}),
		sendDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "quadrocore_send_dropped_total",
			Help: "Outbound messages dropped because a send queue was full",
		}),
		chatLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "quadrocore_chat_rate_limited_total",
			Help: "Chat messages dropped by the per-session limiter",
		}),
	}
}

func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickCount.Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) SetPlayers(n int) {
	if m == nil {
		return
	}
	m.players.Set(float64(n))
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}

// IncRejected reason 只能取 rejectReason 的返回值
func (m *Metrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// IncInbound 未知类型统一记为 "unknown"
func (m *Metrics) IncInbound(msgType string) {
	if m == nil {
		return
	}
	switch msgType {
	case MsgJoin, MsgChat, MsgInput:
	default:
		msgType = "unknown"
	}
	m.inbound.WithLabelValues(msgType).Inc()
}

func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.sendDropped.Inc()
}

func (m *Metrics) IncChatLimited() {
	if m == nil {
		return
	}
	m.chatLimited.Inc()
}
