// Package events publishes loan lifecycle events to a RabbitMQ topic
// exchange. Delivery is best-effort: broker failures trip a circuit breaker
// and the events are buffered and retried in the background.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	maxPublishAttempts = 5
	retryDelay         = 10 * time.Second
	flushInterval      = 5 * time.Second
)

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string

	breaker *Breaker
	pending *PendingQueue
	done    chan struct{}
}

func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	p := &Publisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		breaker:  NewBreaker(5, 30*time.Second, 60*time.Second),
		pending:  NewPendingQueue(),
		done:     make(chan struct{}),
	}
	go p.flushLoop()
	return p, nil
}

func (p *Publisher) Close() {
	close(p.done)
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *Publisher) PublishJSON(routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.send(routingKey, body, 0)
}

func (p *Publisher) send(routingKey string, body []byte, attempts int) error {
	err := p.breaker.Execute(func() error {
		return p.ch.PublishWithContext(context.Background(), p.exchange, routingKey, false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	})
	if err == nil {
		return nil
	}

	if attempts+1 < maxPublishAttempts {
		p.pending.Enqueue(&PendingEvent{
			RoutingKey: routingKey,
			Body:       body,
			RetryAt:    time.Now().Add(retryDelay),
			Attempts:   attempts + 1,
		})
	} else {
		log.Error().Str("event", routingKey).Msg("dropping event after repeated publish failures")
	}
	return err
}

func (p *Publisher) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			for ev := p.pending.Dequeue(); ev != nil; ev = p.pending.Dequeue() {
				if err := p.send(ev.RoutingKey, ev.Body, ev.Attempts); err != nil {
					break
				}
			}
		}
	}
}
