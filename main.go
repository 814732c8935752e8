package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/duynguyendang/contentgraph/internal/config"
	"github.com/duynguyendang/contentgraph/internal/manager"
	"github.com/duynguyendang/contentgraph/pkg/server"
	"github.com/duynguyendang/contentgraph/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	rootDir := flag.String("root", "", "workspace root directory (overrides the config)")
	addr := flag.String("addr", "", "listen address (overrides the config)")
	lowMemMode := flag.Bool("low-mem", false, "optimize for low-memory environments (e.g., Cloud Run with 1GB RAM)")
	readOnly := flag.Bool("read-only", false, "serve existing workspaces without writing")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *rootDir != "" {
		cfg.Workspace.Root = *rootDir
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *lowMemMode {
		cfg.Workspace.Profile = store.ProfileLowMem
		fmt.Println("Running in LOW MEMORY mode")
	}
	if *readOnly {
		cfg.Workspace.ReadOnly = true
	}

	base := ""
	if *configPath != "" {
		base = filepath.Dir(*configPath)
	}
	props, err := cfg.SystemProperties(base)
	if err != nil {
		log.Fatalf("Failed to load system properties: %v", err)
	}

	mgr, err := manager.New(cfg, props)
	if err != nil {
		log.Fatalf("Failed to create workspace manager: %v", err)
	}
	defer func() {
		if err := mgr.CloseAll(); err != nil {
			slog.Error("failed to close workspaces", "error", err)
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	fmt.Printf("Starting REST API Server. Workspace root: %s\n", cfg.Workspace.Root)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := server.NewServer(mgr).Serve(ctx, cfg.Server.Addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
