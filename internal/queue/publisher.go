package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/iliyamo/winery-visit-booking/internal/realtime"
)

// Publisher sends confirmed reservations and change events to RabbitMQ.
// The connection is opened on first use and re-opened after a failure.
// Errors are logged and returned so callers can ignore them without
// interrupting the main request flow.
type Publisher struct {
    url string
    log *zerolog.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the given AMQP URL.  Nothing is
// dialled until the first publish.
func NewPublisher(url string, log *zerolog.Logger) *Publisher {
    if log == nil {
        nop := zerolog.Nop()
        log = &nop
    }
    return &Publisher{url: url, log: log}
}

// channel returns an open channel with the queue and exchange declared.
// Caller must hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.resetLocked()
    if p.url == "" {
        return nil, errors.New("rabbitmq: no broker configured")
    }
    // a short dial timeout keeps a dead broker from stalling bookings
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Dial:      amqp.DefaultDial(3 * time.Second),
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
    })
    if err != nil {
        return nil, fmt.Errorf("rabbitmq: dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(ReservationQueue, true, false, false, false, nil); err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
    }
    if err := ch.ExchangeDeclare(ChangesExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: exchange declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *Publisher) resetLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, mode uint8, v any) error {
    body, err := json.Marshal(v)
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal: %w", err)
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: mode,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, exchange, key, false, false, pub); err != nil {
        p.resetLocked()
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}

// PublishReservationConfirmed publishes to the reservation.confirmed
// queue through the default exchange.  Messages are marked as persistent.
func (p *Publisher) PublishReservationConfirmed(ctx context.Context, ev ReservationConfirmedEvent) error {
    err := p.publish(ctx, "", ReservationQueue, amqp.Persistent, ev)
    if err != nil {
        p.log.Warn().Err(err).Uint64("reservation_id", ev.ReservationID).Msg("reservation.confirmed not published")
    }
    return err
}

// Forward implements realtime.Forwarder: change events go to the fanout
// exchange so every instance's hub sees them.  They are transient since
// subscribers refetch anyway.
func (p *Publisher) Forward(ctx context.Context, ev realtime.Event) error {
    return p.publish(ctx, ChangesExchange, "", amqp.Transient, ev)
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.resetLocked()
    return nil
}
