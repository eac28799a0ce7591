package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/email/config"
	"github.com/sodrunberkicau/microservice-docker-alp/internal/email/mailer"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/contracts"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/messaging"

	"github.com/rabbitmq/amqp091-go"
)

// OrderMailer is what the consumer loop needs from the SMTP side.
type OrderMailer interface {
	SendOrderEmail(ctx context.Context, to string, evt contracts.OrderCreated) error
}

type App struct {
	cfg      config.Config
	logger   *slog.Logger
	consumer *messaging.Consumer
	mailer   OrderMailer
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	m, err := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromAddress)
	if err != nil {
		return nil, err
	}

	consumer, err := messaging.NewConsumer(cfg.RabbitURL, cfg.OrderQueue, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		consumer: consumer,
		mailer:   m,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("email consumer started", "queue", a.cfg.OrderQueue)
	return a.consumer.Start(ctx, a.handleOrderCreated)
}

func (a *App) Close() {
	_ = a.consumer.Close()
}

// handleOrderCreated sends one confirmation email per delivery. Redelivery
// may produce a duplicate email; that beats losing the notification. A
// message that cannot be processed is rejected without requeue so it lands
// on the dead-letter queue instead of stalling this one.
func (a *App) handleOrderCreated(ctx context.Context, msg amqp091.Delivery) {
	var evt contracts.OrderCreated
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		a.logger.Error("invalid order event", "err", err)
		_ = msg.Reject(false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, a.cfg.SendTimeout)
	defer cancel()

	if err := a.mailer.SendOrderEmail(sendCtx, a.cfg.Recipient, evt); err != nil {
		a.logger.Error("send order email failed", "order_id", evt.OrderID, "err", err)
		_ = msg.Reject(false)
		return
	}

	a.logger.Info("order email sent", "order_id", evt.OrderID, "to", a.cfg.Recipient)
	_ = msg.Ack(false)
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
	defer app.Close()

	return app.Run(ctx)
}
