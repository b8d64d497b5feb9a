package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/taborder/internal/api"
	"github.com/dgnsrekt/taborder/internal/bridge"
	"github.com/dgnsrekt/taborder/internal/browser"
	"github.com/dgnsrekt/taborder/internal/config"
	"github.com/dgnsrekt/taborder/internal/controller"
	"github.com/dgnsrekt/taborder/internal/host"
	"github.com/dgnsrekt/taborder/internal/journal"
	"github.com/dgnsrekt/taborder/internal/netutil"
	"github.com/dgnsrekt/taborder/internal/policy"
	"github.com/dgnsrekt/taborder/internal/serializer"
	"github.com/dgnsrekt/taborder/internal/session"
	"github.com/dgnsrekt/taborder/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	level, err := setupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		if _, writeErr := io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n"); writeErr != nil {
			slog.Debug("logger setup stderr write failed", "error", writeErr)
		}
		os.Exit(1)
	}

	slog.Info("taborderd config loaded",
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
		"settings_file", cfg.SettingsFile,
		"journal_file", cfg.JournalFile,
		"retry_delay", cfg.RetryDelay,
		"bridge_timeout", cfg.BridgeTimeout,
		"launch_browser", cfg.LaunchBrowser,
	)

	if err := run(cfg, level); err != nil {
		slog.Error("taborderd failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, level *slog.LevelVar) error {
	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		return err
	}
	bindAddr := ln.Addr().String()
	if !netutil.IsLoopback(bindAddr) {
		slog.Warn("bridge listening on a non-loopback address", "addr", bindAddr)
	}

	store, err := settings.Open(cfg.SettingsFile)
	if err != nil {
		_ = ln.Close()
		return err
	}
	applyDebug(level, cfg.LogLevel, store.Debug())
	store.OnChange(func(v settings.Values) {
		applyDebug(level, cfg.LogLevel, v.Debug)
	})

	writer, err := journal.NewWriter(cfg.JournalFile, cfg.JournalBufferSize, cfg.JournalMaxSizeMB)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Warn("journal close failed", "error", err)
		}
	}()
	broker := journal.NewBroker()

	queue := serializer.New(serializer.RetryPolicy{Delay: cfg.RetryDelay, Retryable: host.IsDragInProgress})
	br := bridge.New(cfg.BridgeTimeout)
	engine := policy.New(br, store, session.NewStore(), queue, journal.New(writer, broker))
	br.SetSink(engine.Deliver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	svc := controller.NewService(store, engine, br, queue)
	srv := newHTTPServer(gctx, api.NewServer(svc, api.Streams{Bridge: br, Events: journal.SSEHandler(broker)}))

	g.Go(func() error { return queue.Run(gctx) })
	g.Go(func() error { return store.Watch(gctx) })
	g.Go(func() error {
		slog.Info("taborderd listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs", "bridge", config.BridgeURL(bindAddr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := br.Close(); err != nil {
			slog.Debug("bridge close failed", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("taborderd shutdown failed", "error", err)
		}
		return nil
	})

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			CDPAddress:   cfg.CDPAddress,
			CDPPort:      cfg.CDPPort,
			BridgeURL:    config.BridgeURL(bridgeHost(bindAddr)),
			ExtensionDir: cfg.ExtensionDir,
			ProfileDir:   cfg.ProfileDir,
		})
		defer launcher.Stop()
		g.Go(func() error {
			if _, err := launcher.Launch(gctx); err != nil {
				slog.Error("browser launch failed", "cdp_url", cfg.CDPURL(), "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// newHTTPServer derives request contexts from ctx. Streaming handlers such as
// the decision feed end when ctx is cancelled.
func newHTTPServer(ctx context.Context, h http.Handler) *http.Server {
	return &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// bridgeHost rewrites a wildcard listen address into one the shim can dial.
func bridgeHost(addr string) string {
	h, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if ip := net.ParseIP(h); ip != nil && ip.IsUnspecified() {
		h = "127.0.0.1"
	}
	return net.JoinHostPort(h, port)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// applyDebug lowers the level to debug while the durable debug flag is set.
func applyDebug(level *slog.LevelVar, configured string, debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
		return
	}
	level.Set(parseLevel(configured))
}

func setupLogger(level, filename string) (*slog.LevelVar, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	lv := new(slog.LevelVar)
	lv.Set(parseLevel(level))
	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: lv})
	slog.SetDefault(slog.New(h))
	return lv, nil
}
