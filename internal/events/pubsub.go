package events

import (
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Config selects the transport. No brokers means an in-process channel.
type Config struct {
	KafkaBrokers  []string
	ConsumerGroup string
}

// PubSub bundles a watermill publisher and subscriber on the same transport.
type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
	// Transport is "kafka" or "gochannel".
	Transport string
}

// NewPubSub builds the transport described by cfg.
func NewPubSub(cfg Config, log zerolog.Logger) (*PubSub, error) {
	wlog := NewLogger(log)

	if len(cfg.KafkaBrokers) == 0 {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wlog)
		return &PubSub{Publisher: ch, Subscriber: ch, Transport: "gochannel"}, nil
	}

	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wlog)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}

	sub, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:       cfg.KafkaBrokers,
		Unmarshaler:   kafka.DefaultMarshaler{},
		ConsumerGroup: cfg.ConsumerGroup,
	}, wlog)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("create kafka subscriber: %w", err)
	}

	return &PubSub{Publisher: pub, Subscriber: sub, Transport: "kafka"}, nil
}

// Close closes both sides. A gochannel is closed once.
func (p *PubSub) Close() error {
	pubErr := p.Publisher.Close()
	if p.Transport == "gochannel" {
		return pubErr
	}
	return errors.Join(pubErr, p.Subscriber.Close())
}
