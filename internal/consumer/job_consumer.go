package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/slotwise/booking-engine/internal/service"
)

// JobConsumer drains fired jobs from the delayed queue and dispatches them to
// the matching handler. The queue is at-least-once, so every handler is
// idempotent on stored status.
type JobConsumer struct {
	reminders    service.ReminderService
	verification service.VerificationService
}

func NewJobConsumer(reminders service.ReminderService, verification service.VerificationService) *JobConsumer {
	return &JobConsumer{reminders: reminders, verification: verification}
}

func (jc *JobConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			jc.handleMessage(msg)
		}
		log.Println("[JobConsumer] channel closed, stopping consumer")
	}()
}

func (jc *JobConsumer) handleMessage(msg amqp.Delivery) {
	ctx := context.Background()

	var err error
	switch msg.RoutingKey {
	case service.RoutingKeyReminder:
		var payload service.ReminderPayload
		if uerr := json.Unmarshal(msg.Body, &payload); uerr != nil {
			log.Printf("[JobConsumer] failed to unmarshal reminder job: %v", uerr)
			msg.Nack(false, false)
			return
		}
		err = jc.reminders.DeliverReminder(ctx, payload.JobID)

	case service.RoutingKeyVerification:
		var payload service.VerificationPayload
		if uerr := json.Unmarshal(msg.Body, &payload); uerr != nil {
			log.Printf("[JobConsumer] failed to unmarshal verification job: %v", uerr)
			msg.Nack(false, false)
			return
		}
		err = jc.verification.RunVerificationAttempt(ctx, payload.HostID)

	default:
		log.Printf("[JobConsumer] unknown routing key %q, dropping", msg.RoutingKey)
		msg.Nack(false, false)
		return
	}

	if err == nil {
		msg.Ack(false)
		return
	}

	// Dispatch failures and vanished records are recorded terminal states;
	// requeueing them would just redeliver a no-op or re-fail loop. Anything
	// else is a transient store error worth another delivery.
	if errors.Is(err, service.ErrNotificationFailed) ||
		errors.Is(err, service.ErrReminderNotFound) ||
		errors.Is(err, service.ErrHostNotFound) {
		log.Printf("[JobConsumer] %s job finished terminally: %v", msg.RoutingKey, err)
		msg.Ack(false)
		return
	}

	log.Printf("[JobConsumer] %s job failed, requeueing: %v", msg.RoutingKey, err)
	msg.Nack(false, true)
}
