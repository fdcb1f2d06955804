package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/iliyamo/winery-visit-booking/internal/queue"
	"github.com/iliyamo/winery-visit-booking/internal/realtime"
)

// Notifier receives change events after a successful write.  The realtime
// hub implements it.
type Notifier interface {
	Publish(ctx context.Context, ev realtime.Event)
}

// ConfirmationPublisher ships confirmed reservations to the broker.  The
// queue publisher implements it.
type ConfirmationPublisher interface {
	PublishReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, realtime.Event) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func logOrNop(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return l
}
