package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/server/models"
	"github.com/nats-io/nats.go"
)

type natsPublisher interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSNotifier publishes JSON events on a single subject.
type NATSNotifier struct {
	nc      natsPublisher
	subject string
	now     func() time.Time
}

func ConnectNATS(url, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("credstack-scheduler"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return newNATSNotifier(nc, subject), nil
}

func newNATSNotifier(nc natsPublisher, subject string) *NATSNotifier {
	return &NATSNotifier{nc: nc, subject: subject, now: time.Now}
}

// Notify publishes and flushes, so an error from the server surfaces here
// rather than being lost in the client buffer.
func (n *NATSNotifier) Notify(ctx context.Context, to models.Contact, message string) error {
	body, err := encodeEvent(to, message, n.now())
	if err != nil {
		return err
	}
	if err := n.nc.Publish(n.subject, body); err != nil {
		return err
	}
	return n.nc.FlushWithContext(ctx)
}

func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
