package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/voiceify/internal/config"
	"github.com/zhouzirui/voiceify/internal/handler"
	synthhandler "github.com/zhouzirui/voiceify/internal/handler/synthesis"
	"github.com/zhouzirui/voiceify/internal/logging"
	"github.com/zhouzirui/voiceify/internal/metrics"
	"github.com/zhouzirui/voiceify/internal/service/synthesis"
	audiostore "github.com/zhouzirui/voiceify/internal/storage/audio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logging.ToStderr()

	m := metrics.New()
	store := audiostore.NewFileStore(cfg.Gateway.AudioDir)

	backend := newBackend(cfg.Gateway)
	log.Printf("synthesis backend: %s", backend.Name())

	cache, closeCache := newCache(ctx, cfg.Gateway)
	defer closeCache()

	svc := synthesis.NewService(backend, store, cache, cfg.Gateway.PublicURL, m)
	router := handler.NewRouter(synthhandler.New(svc, store, m), m)

	startServer(ctx, cfg.Gateway, router)
}

func newBackend(cfg config.GatewayConfig) synthesis.Backend {
	if cfg.Backend == config.BackendVolcengine {
		return synthesis.NewVolcengineBackend(cfg.Speech)
	}
	return synthesis.NewToneBackend()
}

// newCache 优先使用 Redis，连接失败时退回进程内缓存
func newCache(ctx context.Context, cfg config.GatewayConfig) (synthesis.Cache, func()) {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL 未配置，使用进程内缓存")
		return synthesis.NewMemoryCache(cfg.CacheTTL), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("warning: invalid REDIS_URL: %v, falling back to memory cache", err)
		return synthesis.NewMemoryCache(cfg.CacheTTL), func() {}
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("warning: redis unavailable: %v, falling back to memory cache", err)
		client.Close()
		return synthesis.NewMemoryCache(cfg.CacheTTL), func() {}
	}

	log.Printf("redis cache connected: %s", opts.Addr)
	return synthesis.NewRedisCache(client, cfg.CacheTTL), func() { client.Close() }
}

func startServer(ctx context.Context, cfg config.GatewayConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Voiceify gateway listening on %s (public URL %s)", cfg.Addr, cfg.PublicURL)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
