package worker

import (
	"context"

	"shop-service/internal/broker"
	"shop-service/internal/models"
	"shop-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order events and sends confirmation
// notifications to the customer email. Delivery is a structured log plus a
// counter for now; the SMTP integration hangs off notify.
type NotificationWorker struct {
	consumer *broker.Consumer
	handler  *broker.EventHandler
	logger   *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		handler:  broker.NewEventHandler(),
		logger:   util.GetLogger(),
	}

	w.handler.OnOrderPlaced(w.handleOrderPlaced)
	w.handler.OnOrderConfirmed(w.handleOrderConfirmed)
	return w
}

// Start begins consuming order events until the context is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Notification worker starting")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop closes the underlying consumer
func (w *NotificationWorker) Stop() {
	if err := w.consumer.Close(); err != nil {
		w.logger.Error("Failed to close consumer", zap.Error(err))
	}
}

func (w *NotificationWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	w.notify(event.Email, "order placed",
		zap.Int64("order_id", event.OrderID),
		zap.String("label", event.Label),
		zap.String("total", event.Total.String()),
		zap.Int("items", len(event.Items)))
	return nil
}

func (w *NotificationWorker) handleOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	w.notify(event.Email, "order confirmed",
		zap.Int64("order_id", event.OrderID))
	return nil
}

func (w *NotificationWorker) notify(email, subject string, fields ...zap.Field) {
	fields = append(fields, zap.String("email", email), zap.String("subject", subject))
	w.logger.Info("Sending order notification", fields...)
	util.NotificationsSentTotal.Inc()
}
