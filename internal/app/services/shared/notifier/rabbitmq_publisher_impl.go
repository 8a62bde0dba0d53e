package notifier

import (
	"context"
	"fmt"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const deadLetterSuffix = ".dlq"

// NotificationMessage is the payload stored in RabbitMQ for the delivery
// collaborator.
type NotificationMessage struct {
	ID     string                    `json:"id"`
	Intent models.NotificationIntent `json:"intent"`
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type rabbitMQPublisher struct {
	ch        publishChannel
	log       *zap.Logger
	queueName string
	timeout   time.Duration
	confirms  <-chan amqp.Confirmation
	mu        sync.Mutex
}

// NewRabbitMQPublisher declares the durable notification queue with its dead
// letter queue and enables publisher confirms.
func NewRabbitMQPublisher(conn *amqp.Connection, log *zap.Logger, queueName string, timeout time.Duration) (contracts.NotificationPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, exceptions.ErrRabbitMQChannel(err)
	}

	deadLetterQueue := queueName + deadLetterSuffix
	_, err = ch.QueueDeclare(
		deadLetterQueue, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	)
	if err != nil {
		return nil, exceptions.ErrRabbitMQChannel(err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": deadLetterQueue,
		},
	)
	if err != nil {
		return nil, exceptions.ErrRabbitMQChannel(err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, exceptions.ErrRabbitMQChannel(err)
	}

	return newRabbitMQPublisher(ch, ch.NotifyPublish(make(chan amqp.Confirmation, 1)), log, queueName, timeout), nil
}

func newRabbitMQPublisher(ch publishChannel, confirms <-chan amqp.Confirmation, log *zap.Logger, queueName string, timeout time.Duration) *rabbitMQPublisher {
	return &rabbitMQPublisher{
		ch:        ch,
		log:       log,
		queueName: queueName,
		timeout:   timeout,
		confirms:  confirms,
	}
}

// Publish sends the intent as a persistent message and waits for the broker
// confirm.
func (p *rabbitMQPublisher) Publish(ctx context.Context, intent models.NotificationIntent) error {
	requestID := utils.GetRequestID(ctx)
	p.log.Info("rabbitMQPublisher.Publish called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingQueueNameKey, p.queueName),
		zap.String(constvars.LoggingSubjectKey, intent.Subject.String()),
		zap.String(constvars.LoggingUrgencyKey, intent.Urgency),
	)

	message := NotificationMessage{
		ID:     utils.GenerateLockValue(),
		Intent: intent,
	}
	body, err := json.Marshal(message)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	priority := uint8(0)
	if intent.Urgency == constvars.NotificationUrgencyHigh {
		priority = 9
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  constvars.MIMEApplicationJSON,
		MessageId:    message.ID,
		Timestamp:    intent.CreatedAt,
		Priority:     priority,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		p.log.Error("rabbitMQPublisher.Publish error publishing message",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return exceptions.ErrRabbitMQPublishMessage(err, p.queueName)
	}

	select {
	case confirmed, ok := <-p.confirms:
		if !ok || !confirmed.Ack {
			return exceptions.ErrRabbitMQPublishMessage(fmt.Errorf("message not confirmed"), p.queueName)
		}
	case <-ctx.Done():
		return exceptions.ErrRabbitMQPublishMessage(ctx.Err(), p.queueName)
	}

	p.log.Info("rabbitMQPublisher.Publish succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingQueueNameKey, p.queueName),
	)
	return nil
}
