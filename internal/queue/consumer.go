// Package queue contains the broker side of the service: the publisher,
// the consumer that appends confirmed reservations to an audit log, and
// the bridge that feeds change events from other instances into the local
// realtime hub.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    "github.com/iliyamo/winery-visit-booking/internal/realtime"
)

// runWithReconnect dials the broker and runs loop until ctx ends.  Dial
// failures back off exponentially up to 30s; a loop that ends is retried
// after a short pause.
func runWithReconnect(ctx context.Context, url, name string, log *zerolog.Logger, loop func(*amqp.Connection) error) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn().Err(err).Str("consumer", name).Dur("retry_in", backoff).Msg("failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        // closing the connection unblocks the delivery range in loop
        stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
        err = loop(conn)
        stop()
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn().Err(err).Str("consumer", name).Msg("consume loop ended; reconnecting")
        // Sleep briefly before reconnect
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

// StartReservationConsumer consumes the reservation.confirmed queue and
// appends one line per message to <logDir>/reservations.log.  It blocks
// until ctx is cancelled.  A message that cannot be handled is rejected
// without requeue so the consumer keeps going.
func StartReservationConsumer(ctx context.Context, url, logDir string, log *zerolog.Logger) error {
    return runWithReconnect(ctx, url, "reservation-consumer", log, func(conn *amqp.Connection) error {
        ch, err := conn.Channel()
        if err != nil {
            return fmt.Errorf("channel open: %w", err)
        }
        defer func() { _ = ch.Close() }()

        if err := ch.Qos(50, 0, false); err != nil {
            log.Warn().Err(err).Msg("reservation-consumer: set QoS failed")
        }
        if _, err := ch.QueueDeclare(ReservationQueue, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare: %w", err)
        }
        msgs, err := ch.Consume(ReservationQueue, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume: %w", err)
        }
        for d := range msgs {
            if err := appendReservation(logDir, d.Body); err != nil {
                log.Error().Err(err).Msg("reservation-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
        return errors.New("deliveries channel closed")
    })
}

func appendReservation(logDir string, body []byte) error {
    var ev ReservationConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, "reservations.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatReservationLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatReservationLine renders a confirmed reservation as one
// human-friendly log line.
func FormatReservationLine(ev ReservationConfirmedEvent) string {
    return fmt.Sprintf("[%s] Reservation confirmed | reservation_id=%d | slot_id=%d | date=%s %s | language=%s | guest=%q | hotel=%q | room=%q | seats_left=%d\n",
        ev.ConfirmedAt, ev.ReservationID, ev.SlotID, ev.Date, ev.Time, ev.Language, ev.GuestName, ev.Hotel, ev.Room, ev.SeatsLeft)
}

// StartChangeBridge binds a private queue to the changes exchange and
// feeds every event into hub.  Events published by this instance come
// back too and are dropped by hub.Deliver.  It blocks until ctx ends.
func StartChangeBridge(ctx context.Context, url string, hub *realtime.Hub, log *zerolog.Logger) error {
    return runWithReconnect(ctx, url, "change-bridge", log, func(conn *amqp.Connection) error {
        ch, err := conn.Channel()
        if err != nil {
            return fmt.Errorf("channel open: %w", err)
        }
        defer func() { _ = ch.Close() }()

        if err := ch.ExchangeDeclare(ChangesExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
            return fmt.Errorf("exchange declare: %w", err)
        }
        // server-named, exclusive, auto-deleted when this instance goes away
        q, err := ch.QueueDeclare("", false, true, true, false, nil)
        if err != nil {
            return fmt.Errorf("queue declare: %w", err)
        }
        if err := ch.QueueBind(q.Name, "", ChangesExchange, false, nil); err != nil {
            return fmt.Errorf("queue bind: %w", err)
        }
        msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume: %w", err)
        }
        for d := range msgs {
            ev, err := DecodeChange(d.Body)
            if err != nil {
                log.Warn().Err(err).Msg("change-bridge: bad event")
                continue
            }
            hub.Deliver(ev)
        }
        return errors.New("deliveries channel closed")
    })
}

// DecodeChange parses a change event from the exchange.
func DecodeChange(body []byte) (realtime.Event, error) {
    var ev realtime.Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return ev, fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Table == "" || ev.Op == "" {
        return ev, errors.New("event without table or op")
    }
    return ev, nil
}
