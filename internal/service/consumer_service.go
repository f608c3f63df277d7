package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-storycraft-be/internal/dto"
	"ai-storycraft-be/internal/scheduler"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService bridges the event bus and the debounce scheduler: every
// fragment.saved message (re)schedules a librarian run for its story, with
// the branch the message captured at save time.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	debouncer *scheduler.Debouncer
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	debouncer *scheduler.Debouncer,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		debouncer: debouncer,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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
	var payload dto.PublishFragmentSavedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal fragment.saved message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Scheduling librarian run for story %s (branch %s)", payload.StoryId, payload.BranchId)
	cs.debouncer.Schedule(payload.StoryId, payload.BranchId)
	msg.Ack()
}
