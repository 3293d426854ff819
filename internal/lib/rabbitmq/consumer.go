package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/resume-builder/internal/lib/sl"
)

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// DefaultWorkers сколько сообщений обрабатывается одновременно.
const DefaultWorkers = 10

// ConsumerMessage запускает потребителя очереди и сразу возвращается.
// Ошибка обработчика возвращает сообщение в очередь один раз; повторно
// доставленное сообщение с ошибкой отбрасывается, чтобы битое событие
// не зацикливало очередь.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, workers int, handler Handler) error {
	const op = "rabbitmq.ConsumerMessage"
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if err := ch.Qos(workers, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	sem := make(chan struct{}, workers)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					log.Warn("delivery channel closed")
					return
				}
				sem <- struct{}{}
				go func() {
					defer func() { <-sem }()
					settle(ctx, log, d, handler)
				}()
			}
		}
	}()
	return nil
}

func settle(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}

	requeue := !d.Redelivered
	log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}
