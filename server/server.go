package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Server 组装房间、连接准入、广播与指标
type Server struct {
	cfg Config

	room        *Room
	conns       *ConnManager
	broadcaster *Broadcaster
	metrics     *Metrics
	registry    *prometheus.Registry
}

// NewServer 创建服务；reg 为空时使用独立的注册表
func NewServer(cfg Config, m *GameMap, reg *prometheus.Registry) *Server {
	cfg.applyDefaults()
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	metrics := NewMetrics(reg)
	bc := NewBroadcaster(metrics)
	conns := NewConnManager(1)
	room := NewRoom(RoomConfig{
		Map:         m,
		MaxPlayers:  cfg.MaxPlayers,
		TickRate:    cfg.TickRate,
		Physics:     cfg.Physics(),
		Broadcaster: bc,
		Conns:       conns,
		Metrics:     metrics,
	})
	return &Server{
		cfg:         cfg,
		room:        room,
		conns:       conns,
		broadcaster: bc,
		metrics:     metrics,
		registry:    reg,
	}
}

// Start 启动房间协程，ctx 取消后停止
func (s *Server) Start(ctx context.Context) {
	s.room.StartTicker(ctx)
}

// Room 房间（控制台使用）
func (s *Server) Room() *Room { return s.room }

// Conns 连接管理器
func (s *Server) Conns() *ConnManager { return s.conns }

// Config 生效中的配置
func (s *Server) Config() Config { return s.cfg }
