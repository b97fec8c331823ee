package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"asciibattle/config"
	"asciibattle/game"
	"asciibattle/server"
)

// ASCII Battle 入口：启动 TCP 游戏服务与 HTTP 管理/WebSocket 服务
// 用法：asciibattle [-addr :5555] [-env .env] [PORT]
func main() {
	var addr, envFile string
	flag.StringVar(&addr, "addr", "", "game listen address, overrides BATTLE_ADDR, e.g. :5555")
	flag.StringVar(&envFile, "env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if flag.NArg() == 1 {
		cfg.Addr = ":" + flag.Arg(0)
	}

	if err := server.InitLogger(cfg.LogFile, cfg.LogStderr); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	world, err := game.NewWorld(cfg.Rules())
	if err != nil {
		server.Log.Fatalf("config: %v", err)
	}
	engine := game.NewEngine(world)
	mgr := server.NewManager(engine, server.Options{
		WriteTimeout: cfg.WriteTimeout,
		SendQueue:    cfg.SendQueue,
		PongWait:     cfg.PongWait,
	})
	server.Log.Infof("grid %dx%d obstacles=%s maxPlayers=%d damage=%d startHealth=%d",
		cfg.Rows, cfg.Cols, cfg.Obstacles, cfg.MaxPlayers, cfg.Damage, cfg.StartHealth)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		server.Log.Fatalf("listen: %v", err)
	}

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.Serve(gctx, ln, mgr) })

	if cfg.HTTPAddr != "" {
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.NewHTTPHandler(mgr)}
		g.Go(func() error {
			server.Log.Infof("admin + websocket on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	if err := g.Wait(); err != nil {
		server.Log.Errorf("server stopped: %v", err)
	}
	server.Log.Info("Shutting down...")
}
