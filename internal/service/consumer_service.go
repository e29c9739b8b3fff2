package service

import (
	"context"
	"encoding/json"
	"time"

	"document-hub-be/internal/dto"
	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/internal/pkg/logger"
	"document-hub-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const UploadResultMessageType = "upload_result"

// ResultDelivery pushes live updates to a workspace session.
// Implemented by the websocket Hub.
type ResultDelivery interface {
	Send(sessionID uuid.UUID, msgType string, payload interface{})
}

// EventPublisher forwards domain events to the external bus.
// Implemented by pkg/nats.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   ResultDelivery
	events     EventPublisher
	logger     logger.ILogger
}

// NewConsumerService wires the upload results topic to delivery and, when
// eventPublisher is non-nil, to the event bus.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	delivery ResultDelivery,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		events:     eventPublisher,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	// Results are informational; nothing is retried, so every message is acked.
	defer msg.Ack()

	var payload dto.UploadResultMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal upload result", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if payload.SessionId != uuid.Nil && cs.delivery != nil {
		cs.delivery.Send(payload.SessionId, UploadResultMessageType, payload)
	}

	if cs.events == nil {
		return
	}

	sessionID := ""
	if payload.SessionId != uuid.Nil {
		sessionID = payload.SessionId.String()
	}
	evt := events.DocumentUpload{
		SessionID:     sessionID,
		ItemID:        payload.ItemId,
		AttachmentID:  payload.Result.AttachmentID.String(),
		Name:          payload.Result.Name,
		RequestedPath: payload.Result.RequestedPath,
		CommittedPath: payload.Result.CommittedPath,
		OccurredAt:    payload.OccurredAt,
	}
	if !payload.Result.Succeeded() {
		evt.ErrorKind = string(payload.Result.ErrorKind)
		evt.Reason = payload.Result.Reason
		if evt.ErrorKind == "" {
			evt.ErrorKind = string(apperror.KindBackend)
		}
	}

	ctx, cancel := context.WithTimeout(msg.Context(), 5*time.Second)
	defer cancel()
	if err := cs.events.Publish(ctx, evt); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to forward upload event", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}
