package worker

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/config"
	"github.com/stemsi/etesthub-backend/internal/events"
)

// MonitorRelay forwards submission events from the event bus to the Redis
// PubSub channel of their exam, where live monitor streams listen.
type MonitorRelay struct {
	sub   message.Subscriber
	rdb   *redis.Client
	topic string
	log   zerolog.Logger
	done  chan struct{}
}

func NewMonitorRelay(sub message.Subscriber, rdb *redis.Client, topic string, log zerolog.Logger) *MonitorRelay {
	return &MonitorRelay{
		sub:   sub,
		rdb:   rdb,
		topic: topic,
		log:   log.With().Str("component", "monitor_relay").Logger(),
		done:  make(chan struct{}),
	}
}

// Start subscribes to the events topic and relays in the background until
// ctx is cancelled. Events published after Start returns are relayed.
func (w *MonitorRelay) Start(ctx context.Context) error {
	msgs, err := w.sub.Subscribe(ctx, w.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", w.topic, err)
	}

	w.log.Info().Str("topic", w.topic).Msg("MonitorRelay started")
	go w.run(ctx, msgs)
	return nil
}

// Done is closed once the relay loop has exited.
func (w *MonitorRelay) Done() <-chan struct{} {
	return w.done
}

func (w *MonitorRelay) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("MonitorRelay stopped")
			return

		case msg, ok := <-msgs:
			if !ok {
				w.log.Info().Msg("Subscription closed, MonitorRelay stopped")
				return
			}
			w.handle(ctx, msg)
		}
	}
}

func (w *MonitorRelay) handle(ctx context.Context, msg *message.Message) {
	evt, err := events.Decode(msg)
	if err != nil || evt.ExamID == "" {
		// Poison message: drop it rather than redeliver forever.
		w.log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("Invalid submission event")
		msg.Ack()
		return
	}

	channel := config.CacheKey.ExamMonitorChannel(evt.ExamID)
	if err := w.rdb.Publish(ctx, channel, []byte(msg.Payload)).Err(); err != nil {
		if ctx.Err() == nil {
			w.log.Warn().Err(err).Str("event_id", evt.ID).Msg("Relay to Redis failed, requeueing")
		}
		msg.Nack()
		return
	}

	w.log.Debug().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Str("channel", channel).
		Msg("Relayed submission event")
	msg.Ack()
}
