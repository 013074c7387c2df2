package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/photo-share/api/core"
	"github.com/anoixa/photo-share/config"
	"github.com/anoixa/photo-share/internal/app"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	config.InitConfig()
	cfg := config.Get()

	container := app.NewContainer(cfg)

	if err := container.Init(); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	if err := container.Migrate(); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}
	if err := container.InitSweeper(); err != nil {
		log.Fatalf("Failed to initialize sweeper: %v", err)
	}

	container.StartHub()

	if cfg.SweepOnStartup {
		sweepOnStartup(container)
	}
	container.Sweeper.Start(cfg.SweepInterval)

	deps := &core.RouterDependencies{
		Config:    cfg,
		DB:        container.GetDatabaseProvider(),
		Cache:     container.GetCacheProvider(),
		Storage:   container.GetStorageProvider(),
		Sessions:  container.Sessions,
		Accounts:  container.Accounts,
		Photos:    container.Photos,
		Favorites: container.Favorites,
		Hub:       container.Hub,
	}

	// 启动gin
	server, cleanup := core.StartServer(deps)
	go func() {
		log.Printf("Server started on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// 处理退出signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if cleanup != nil {
		cleanup()
		log.Println("Cleanup tasks finished.")
	}

	// 关闭 DI 容器，推送中心随之断开所有 websocket 连接
	if err := container.Close(); err != nil {
		log.Printf("Error closing container: %v", err)
	}

	log.Println("Server exited successfully")
}

// sweepOnStartup 启动前清理上次异常退出留下的孤儿记录
func sweepOnStartup(container *app.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := container.Sweeper.Run(ctx)
	if err != nil {
		log.Printf("[Sweep] Startup sweep failed: %v", err)
		return
	}
	log.Printf("[Sweep] Startup sweep removed %d orphan rows", report.Total())
}
