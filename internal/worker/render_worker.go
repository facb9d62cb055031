// Package worker consumes render requests and maintains the outbox.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finalyze/internal/amqp"
	"finalyze/internal/email"
	"finalyze/internal/log"
	"finalyze/internal/storage"
)

// Outbox is the storage the worker writes rendered emails to.
type Outbox interface {
	Save(ctx context.Context, e storage.RenderedEmail) (bool, error)
	PurgeDelivered(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RenderWorker renders queued requests into the outbox.
type RenderWorker struct {
	outbox Outbox
	logger *log.Logger
}

// NewRenderWorker creates a render worker. A nil logger logs through the
// default logger under the worker component.
func NewRenderWorker(outbox Outbox, logger *log.Logger) *RenderWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &RenderWorker{outbox: outbox, logger: logger}
}

// HandleRenderMessage renders msg and stores the result under the message
// ID. Redelivered messages are acknowledged without a second row.
func (w *RenderWorker) HandleRenderMessage(ctx context.Context, msg *amqp.RenderRequestMessage) error {
	w.logger.InfoContext(ctx, "Processing render request",
		log.FieldOperation, log.OpRender,
		log.FieldMessageID, msg.ID.String(),
		log.FieldEmailType, string(msg.Request.Type))

	rendered := email.Compose(&msg.Request)

	created, err := w.outbox.Save(ctx, storage.RenderedEmail{
		ID:        msg.ID.String(),
		Recipient: msg.Recipient,
		EmailType: string(rendered.Type),
		Subject:   rendered.Subject,
		HTML:      rendered.HTML,
		Text:      rendered.Text,
		Fallback:  rendered.Fallback,
		CreatedAt: msg.Timestamp,
	})
	if err != nil {
		if errors.Is(err, storage.ErrMissingID) {
			return amqp.Permanent(err)
		}
		return fmt.Errorf("save rendered email: %w", err)
	}

	if !created {
		w.logger.InfoContext(ctx, "Render request already processed",
			log.FieldMessageID, msg.ID.String())
		return nil
	}

	fields := log.NewFields().
		WithEmail(string(rendered.Type), rendered.Subject, rendered.Fallback, len(rendered.HTML))
	fields[log.FieldMessageID] = msg.ID.String()
	fields[log.FieldRecipient] = msg.Recipient
	w.logger.InfoContext(ctx, "Render request processed", fields.ToSlice()...)
	return nil
}
