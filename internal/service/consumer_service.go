package service

import (
	"context"
	"encoding/json"

	"cskg-agent-be/internal/dto"
	"cskg-agent-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber      message.Subscriber
	topicName       string
	questionService IQuestionService
	workers         int
	logger          logger.ILogger
}

// NewConsumerService processes queued questions with up to workers
// concurrent pipelines.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	questionService IQuestionService,
	workers int,
	log logger.ILogger,
) IConsumerService {
	if workers < 1 {
		workers = 1
	}
	return &consumerService{
		subscriber:      subscriber,
		topicName:       topicName,
		questionService: questionService,
		workers:         workers,
		logger:          log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	for i := 0; i < cs.workers; i++ {
		go func() {
			for msg := range messages {
				cs.processMessage(ctx, msg)
			}
		}()
	}

	cs.logger.Info("ConsumerService", "Consuming questions", map[string]interface{}{
		"topic":   cs.topicName,
		"workers": cs.workers,
	})
	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishQuestionMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.RunId == "" {
		cs.logger.Error("ConsumerService", "Dropping malformed question message", map[string]interface{}{
			"message_uuid": msg.UUID,
			"error":        errString(err),
		})
		// redelivery cannot fix a malformed payload
		msg.Ack()
		return
	}

	cs.logger.Info("ConsumerService", "Processing question", map[string]interface{}{"run_id": payload.RunId})
	if err := cs.questionService.Process(ctx, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Question processing failed", map[string]interface{}{
			"run_id": payload.RunId,
			"error":  err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
