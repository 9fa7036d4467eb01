package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/camp3rcraft/quadrocore/server"
)

// quadrocore 入口：加载配置与地图，启动 HTTP + WebSocket 服务、房间协程与控制台
func main() {
	started := time.Now()

	var configPath, mapPath string
	flag.StringVar(&configPath, "config", "config.json", "server configuration file")
	flag.StringVar(&mapPath, "map", "map.json", "map document")
	flag.Parse()

	fmt.Println("\x1b[36mquadrocore vanilla ver.1.000\x1b[0m")
	fmt.Println("Starting server...")

	// .env 可选，存在时其中的变量参与配置覆盖
	_ = godotenv.Load()

	fmt.Println("Loading configuration...")
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := server.InitLogger(cfg.LogFile); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	fmt.Println("Loading map...")
	gameMap, err := server.LoadMap(mapPath)
	if err != nil {
		server.Log.Fatalf("map: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("Initializing WebSocket server...")
	srv := server.NewServer(cfg, gameMap, nil)
	srv.Start(ctx)

	httpSrv := &http.Server{Addr: ":" + strconv.Itoa(cfg.Port), Handler: srv.NewRouter()}
	go func() {
		server.Log.Infof("listening on %s (tick %s, max %d players)", httpSrv.Addr, srv.Room().TickInterval(), cfg.MaxPlayers)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	exitCode := make(chan int, 1)
	console := server.NewConsole(srv.Room(), os.Stdout, func(code int) {
		select {
		case exitCode <- code:
		default:
		}
	})
	go console.Run(ctx, os.Stdin)

	fmt.Printf("Done! (%.3fs)\n", time.Since(started).Seconds())

	// 优雅退出（Ctrl+C 或控制台命令）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	code := server.ExitStop
	select {
	case <-quit:
	case code = <-exitCode:
	}
	server.Log.Info("Shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = httpSrv.Shutdown(shutdownCtx)
	cancel()
	<-srv.Room().Done()
	server.SyncLogger()
	os.Exit(code)
}
