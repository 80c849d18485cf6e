// Package notify delivers reminder messages to users through a configurable
// channel: the server log, a RabbitMQ exchange, a NATS subject or a Redis
// pub/sub channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/dmitrijs2005/credstack/internal/server/config"
	"github.com/dmitrijs2005/credstack/internal/server/models"
)

// Notifier hands a message to the delivery channel. A nil error means the
// channel accepted it; it says nothing about the user reading it.
type Notifier interface {
	Notify(ctx context.Context, to models.Contact, message string) error
	Close() error
}

// Event is the JSON payload published by the broker-backed notifiers.
type Event struct {
	OwnerID string    `json:"user_id"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone,omitempty"`
	Channel string    `json:"channel"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

func newEvent(to models.Contact, message string, now time.Time) Event {
	e := Event{
		OwnerID: to.OwnerID,
		Email:   to.Email,
		Channel: to.Preference,
		Message: message,
		SentAt:  now.UTC(),
	}
	if to.Phone != nil {
		e.Phone = *to.Phone
	}
	return e
}

func encodeEvent(to models.Contact, message string, now time.Time) ([]byte, error) {
	return json.Marshal(newEvent(to, message, now))
}

// New builds the notifier selected by cfg.NotifyDriver.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (Notifier, error) {
	switch cfg.NotifyDriver {
	case "", config.NotifyDriverLog:
		return NewLogNotifier(logger), nil
	case config.NotifyDriverAMQP:
		return DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	case config.NotifyDriverNATS:
		return ConnectNATS(cfg.NATSURL, cfg.NATSSubject)
	case config.NotifyDriverRedis:
		return ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisChannel)
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.NotifyDriver)
	}
}
