package queue

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/movie-catalog/internal/logging"
)

// Publisher sends MediaOrphanedEvents to RabbitMQ.  Orphans are rare, so
// every publish dials its own connection instead of holding one open.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishMediaOrphaned publishes ev as a persistent message.  Errors are
// logged and returned so the caller can choose to ignore them.
func (p *Publisher) PublishMediaOrphaned(ctx context.Context, ev MediaOrphanedEvent) error {
	log := logging.Ctx(ctx)

	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", MediaOrphanedQueue, false, false, pub); err != nil {
		log.Warn().Err(err).Str("asset_id", ev.AssetID).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}

// declare makes sure the durable queue exists.  Idempotent.
func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(MediaOrphanedQueue, true, false, false, false, nil)
	return err
}
