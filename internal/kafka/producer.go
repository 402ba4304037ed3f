package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/shop-orders/internal/orders"
	"github.com/segmentio/kafka-go"
)

// Producer publishes order lifecycle events through a buffered inbox drained
// by one goroutine, so Publish never waits on the brokers.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, buf int, log *slog.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 5 * time.Second,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				_ = p.w.Close()
				return
			}
			p.write(m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error("kafka write failed", "topic", m.Topic, "key", string(m.Key), "err", err)
	}
}

// Publish enqueues a message; when the inbox is full or the producer is
// closed the event is dropped and logged.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn("kafka producer closed, event dropped", "topic", topic, "key", string(key))
		return
	}
	select {
	case p.inbox <- m:
	default:
		p.log.Warn("kafka inbox full, event dropped", "topic", topic, "key", string(key))
	}
}

// PublishEvent sends a lifecycle envelope partitioned by its order id.
func (p *Producer) PublishEvent(topic string, env orders.Envelope) {
	p.Publish(topic, []byte(env.CorrelationID), MustMarshal(env),
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// Close stops accepting messages; the loop flushes what is queued and exits.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the loop has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
