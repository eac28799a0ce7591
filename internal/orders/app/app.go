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

	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/config"
	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/httpapi"
	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/order"
	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/product"
	"github.com/sodrunberkicau/microservice-docker-alp/internal/orders/storage"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/blob"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/livefeed"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/messaging"

	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Store
	products  *product.Store
	publisher *messaging.Publisher
	redis     *redis.Client
	httpSrv   *http.Server
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	products, err := product.NewStore(ctx, cfg.ProductDatabaseURL)
	if err != nil {
		store.Close()
		return nil, err
	}

	blobs, err := blob.New(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		store.Close()
		products.Close()
		return nil, err
	}
	if err := blobs.EnsureBucket(ctx, cfg.ProofBucket); err != nil {
		store.Close()
		products.Close()
		return nil, err
	}

	redisClient, err := livefeed.Connect(cfg.RedisURL)
	if err != nil {
		store.Close()
		products.Close()
		return nil, err
	}

	// Lazy broker connection: the service starts and serves even while the
	// broker is down; the first publish dials.
	publisher := messaging.NewPublisher(cfg.RabbitURL, cfg.OrderQueue, logger)
	live := livefeed.NewPublisher(redisClient, cfg.LiveChannel)

	orderSvc := order.NewService(store, products, publisher, live, blobs, cfg.ProofBucket, cfg.PublishTimeout, logger)

	api := httpapi.NewServer(orderSvc, logger)
	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api,
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		products:  products,
		publisher: publisher,
		redis:     redisClient,
		httpSrv:   httpSrv,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("orders http server listening", "addr", a.cfg.HTTPAddr)
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
	_ = a.publisher.Close()
	_ = a.redis.Close()
	a.products.Close()
	a.store.Close()
}

func Run() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer app.Close(context.Background())

	return app.Run(ctx)
}
