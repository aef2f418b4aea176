package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/capacity-service/internal/config"
	"github.com/spec-kit/capacity-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventScheduleCommitted, n.handleScheduleCommitted)
	n.dispatcher.Subscribe(events.EventCapacityTargetUpdated, n.handleTargetUpdated)
	n.dispatcher.Subscribe(events.EventCapacityThreshold, n.handleThresholdBreached)
}

func (n *NotificationService) handleScheduleCommitted(ctx context.Context, event events.Event) error {
	n.logger.Info("ScheduleCommitted", zap.String("department_id", event.DepartmentID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTargetUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("CapacityTargetUpdated", zap.String("department_id", event.DepartmentID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleThresholdBreached(ctx context.Context, event events.Event) error {
	n.logger.Warn("CapacityThresholdBreached", zap.String("department_id", event.DepartmentID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("department_id", event.DepartmentID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("department_id", event.DepartmentID),
		zap.String("event_type", string(event.Type)))
}
