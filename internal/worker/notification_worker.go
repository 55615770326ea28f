package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/repairflow/workorder-service/internal/notify"
	"github.com/repairflow/workorder-service/internal/service"
)

// NotificationWorker drains the redis outbox and delivers each message
// through the channel pusher. Deliveries are best-effort: a failed push is
// logged and dropped rather than retried forever, matching the
// fire-and-forget contract of the notification surface.
type NotificationWorker struct {
	redis     *redis.Client
	pusher    notify.Pusher
	logger    *zap.Logger
	outboxKey string
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(redisClient *redis.Client, pusher notify.Pusher, logger *zap.Logger, outboxKey string) *NotificationWorker {
	return &NotificationWorker{
		redis:     redisClient,
		pusher:    pusher,
		logger:    logger,
		outboxKey: outboxKey,
	}
}

// Run blocks on the outbox until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("notification worker started", zap.String("outbox", w.outboxKey))
	for {
		res, err := w.redis.BRPop(ctx, 5*time.Second, w.outboxKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.logger.Info("notification worker stopped")
				return
			}
			w.logger.Warn("outbox pop failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		// BRPop returns [key, value].
		if len(res) != 2 {
			continue
		}
		w.deliver(ctx, []byte(res[1]))
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, raw []byte) {
	var msg notify.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		w.logger.Warn("discarding malformed outbox entry", zap.Error(err))
		return
	}
	if err := w.pusher.Push(ctx, msg); err != nil {
		w.logger.Warn("push delivery failed",
			zap.String("to", msg.To), zap.Error(err))
	}
}

// StartNotificationWorker registers event handlers and launches the
// delivery loop.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, w *NotificationWorker) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if w != nil {
		go w.Run(ctx)
	}
}
