package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 构建 HTTP 路由：/ws 游戏连接，其余为运维接口
// 不启动协程、不监听端口，可直接交给 httptest
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.HandleWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Route("/admin", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
		r.Get("/players", s.HandleAdminPlayers)
		r.Get("/config", s.HandleAdminConfig)
	})
	return r
}

// HandleAdminPlayers 输出在线玩家列表
// GET /admin/players
func (s *Server) HandleAdminPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.room.Players()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	payload := map[string]any{
		"count":       len(players),
		"maxPlayers":  s.cfg.MaxPlayers,
		"connections": s.conns.Active(),
		"players":     players,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// HandleAdminConfig 输出生效中的配置（只读，运行期不可修改）
// GET /admin/config
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.cfg)
}
