package queue

import (
    "context"
    "errors"

    "github.com/rs/zerolog"
)

// ErrOutboxFull is returned when confirmations pile up faster than the
// broker takes them.  The reservation itself is already committed.
var ErrOutboxFull = errors.New("rabbitmq: confirmation outbox full")

// ConfirmationSender is what the outbox drains into; *Publisher is one.
type ConfirmationSender interface {
    PublishReservationConfirmed(ctx context.Context, ev ReservationConfirmedEvent) error
}

// Outbox queues reservation.confirmed messages in memory so a booking
// request never waits on the broker.  One goroutine (Run) sends them in
// order.  Messages still queued at shutdown are lost; the reservation log
// is a convenience copy, the visits table is the record.
type Outbox struct {
    next ConfirmationSender
    q    chan ReservationConfirmedEvent
    log  *zerolog.Logger
}

// NewOutbox returns an outbox holding up to size pending messages.
func NewOutbox(next ConfirmationSender, size int, log *zerolog.Logger) *Outbox {
    if log == nil {
        nop := zerolog.Nop()
        log = &nop
    }
    if size < 1 {
        size = 1
    }
    return &Outbox{next: next, q: make(chan ReservationConfirmedEvent, size), log: log}
}

// PublishReservationConfirmed enqueues ev without blocking.
func (o *Outbox) PublishReservationConfirmed(_ context.Context, ev ReservationConfirmedEvent) error {
    select {
    case o.q <- ev:
        return nil
    default:
        o.log.Warn().Uint64("reservation_id", ev.ReservationID).Msg("confirmation outbox full, message dropped")
        return ErrOutboxFull
    }
}

// Pending reports how many messages wait to be sent.
func (o *Outbox) Pending() int { return len(o.q) }

// Run sends queued messages until ctx ends.  Send errors are logged by
// the publisher and not retried.
func (o *Outbox) Run(ctx context.Context) {
    for {
        select {
        case <-ctx.Done():
            return
        case ev := <-o.q:
            _ = o.next.PublishReservationConfirmed(context.WithoutCancel(ctx), ev)
        }
    }
}
