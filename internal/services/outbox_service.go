package services

import (
	"context"
	"errors"
	"fmt"

	"finalyze/internal/amqp"
	"finalyze/internal/email"
	"finalyze/internal/log"
)

// ErrNoPublisher is returned by Enqueue when no broker is configured.
var ErrNoPublisher = errors.New("render request publisher not configured")

// Publisher sends render requests to the worker.
type Publisher interface {
	PublishRenderRequest(ctx context.Context, msg *amqp.RenderRequestMessage) error
}

// OutboxService hands render requests to the worker over AMQP.
type OutboxService struct {
	publisher Publisher
	logger    *log.Logger
}

// NewOutboxService creates an outbox service. A nil logger logs through the
// default logger under the amqp component.
func NewOutboxService(publisher Publisher, logger *log.Logger) *OutboxService {
	if logger == nil {
		logger = log.Default(log.ComponentAMQP)
	}
	return &OutboxService{publisher: publisher, logger: logger}
}

// Enabled reports whether a publisher is configured.
func (s *OutboxService) Enabled() bool {
	return s != nil && s.publisher != nil
}

// Enqueue publishes req for recipient and returns the message ID, which
// becomes the outbox row ID.
func (s *OutboxService) Enqueue(ctx context.Context, recipient string, req email.Request) (string, error) {
	if !s.Enabled() {
		s.logger.WarnContext(ctx, "AMQP client not available, render request not enqueued",
			log.FieldOperation, log.OpPublish,
			log.FieldRecipient, recipient)
		return "", ErrNoPublisher
	}

	msg := amqp.NewRenderRequestMessage(recipient, req)
	if err := msg.Validate(); err != nil {
		return "", err
	}
	if err := s.publisher.PublishRenderRequest(ctx, msg); err != nil {
		return "", fmt.Errorf("publish render request: %w", err)
	}

	s.logger.InfoContext(ctx, "Render request enqueued",
		log.FieldOperation, log.OpPublish,
		log.FieldMessageID, msg.ID.String(),
		log.FieldRecipient, recipient,
		log.FieldEmailType, string(req.Type))
	return msg.ID.String(), nil
}
