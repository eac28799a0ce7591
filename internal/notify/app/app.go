package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/notify/config"
	"github.com/sodrunberkicau/microservice-docker-alp/internal/notify/websocket"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/livefeed"

	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg        config.Config
	logger     *slog.Logger
	redis      *redis.Client
	subscriber *livefeed.Subscriber
	hub        *websocket.Hub
	httpSrv    *http.Server
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	redisClient, err := livefeed.Connect(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHub()
	wsHandler := websocket.NewHandler(hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", wsHandler.ServeWS)

	return &App{
		cfg:        cfg,
		logger:     logger,
		redis:      redisClient,
		subscriber: livefeed.NewSubscriber(redisClient, cfg.LiveChannel),
		hub:        hub,
		httpSrv:    &http.Server{Addr: cfg.HTTPAddr, Handler: mux},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)

	go a.hub.Run(ctx)

	go func() {
		a.logger.Info("subscribed to live channel", "channel", a.cfg.LiveChannel)
		errCh <- a.subscriber.Start(ctx, func(payload []byte) {
			a.logger.Info("relaying live update", "bytes", len(payload))
			a.hub.Broadcast(payload)
		})
	}()

	go func() {
		a.logger.Info("notification http server listening", "addr", a.cfg.HTTPAddr)
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) Close(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.ShutdownGracePeriod)
	defer cancel()
	_ = a.httpSrv.Shutdown(shutdownCtx)
	_ = a.redis.Close()
}

func Run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.Close(context.Background())

	return app.Run(ctx)
}
