package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/smartinvest/smartinvest/internal/api"
	"github.com/smartinvest/smartinvest/internal/browser"
	"github.com/smartinvest/smartinvest/internal/config"
	"github.com/smartinvest/smartinvest/internal/dashboard"
	"github.com/smartinvest/smartinvest/internal/fx"
	"github.com/smartinvest/smartinvest/internal/netutil"
	"github.com/smartinvest/smartinvest/internal/portfolio"
	"github.com/smartinvest/smartinvest/internal/quote"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("dashboard config loaded",
		"bind_addr", cfg.BindAddr,
		"store_backend", cfg.StoreBackend,
		"data_dir", cfg.DataDir,
		"fetch_mode", cfg.FetchMode,
		"screener_base_url", cfg.ScreenerBaseURL,
		"refresh_on_switch", cfg.RefreshOnSwitch,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("failed to open portfolio store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	timeout := time.Duration(cfg.HTTPTimeoutMS) * time.Millisecond
	fetcher, launcher, err := openFetcher(cfg, timeout)
	if err != nil {
		slog.Error("failed to set up page fetcher", "mode", cfg.FetchMode, "error", err)
		os.Exit(1)
	}
	if launcher != nil {
		defer launcher.Stop()
	}

	provider := quote.NewScreener(cfg.ScreenerBaseURL, fetcher, timeout)
	fxClient := fx.NewClient(cfg.FXBaseURL, timeout, time.Duration(cfg.FXCacheTTL)*time.Second)

	manager, err := portfolio.NewManager(store, dashboard.BatchSource{Provider: provider})
	if err != nil {
		slog.Error("failed to initialize portfolio manager", "error", err)
		os.Exit(1)
	}

	svc := dashboard.NewService(manager, provider, fxClient, cfg.RefreshOnSwitch)
	h := api.NewServer(svc)

	srv := &http.Server{Addr: bindAddr, Handler: h}

	go func() {
		slog.Info("dashboard listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("dashboard server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("dashboard shutdown failed", "error", err)
	}
}

func openStore(cfg *config.Config) (portfolio.Store, func(), error) {
	switch cfg.StoreBackend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, nil, err
		}
		st, err := portfolio.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {
			if err := st.Close(); err != nil {
				slog.Debug("sqlite store close failed", "error", err)
			}
		}, nil
	default:
		st, err := portfolio.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return st, func() {}, nil
	}
}

func openFetcher(cfg *config.Config, timeout time.Duration) (quote.Fetcher, *browser.Launcher, error) {
	if cfg.FetchMode != "browser" {
		return quote.NewHTTPFetcher(timeout), nil, nil
	}

	launcher := browser.NewLauncher(browser.Config{
		CDPAddress: cfg.CDPAddress,
		CDPPort:    cfg.CDPPort,
		ProfileDir: filepath.Join(cfg.DataDir, "browser_profile"),
		Headless:   true,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := launcher.Launch(ctx); err != nil {
		return nil, nil, err
	}
	return quote.NewBrowserFetcher(cfg.CDPURL(), quote.DefaultUserAgent, timeout), launcher, nil
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
