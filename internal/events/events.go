// Package events publishes domain changes to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	ProductCreated = "products.created"
	ProductUpdated = "products.updated"
	ProductDeleted = "products.deleted"
	OrderCreated   = "orders.created"
	OrderUpdated   = "orders.updated"
	OrderDeleted   = "orders.deleted"
)

// Publisher emits a JSON payload on a subject. Publishing is best effort:
// callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// DeletedPayload is the body of *.deleted events.
type DeletedPayload struct {
	ID string `json:"id"`
}

type NATSPublisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// Connect dials NATS at url. An empty url yields a Nop publisher.
func Connect(url string, logger *zap.Logger) (Publisher, error) {
	if url == "" {
		logger.Info("NATS_URL not set, domain events disabled")
		return Nop{}, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("shop-backend"),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("connected to nats", zap.String("url", nc.ConnectedUrl()))

	return &NATSPublisher{nc: nc, logger: logger}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("published event", zap.String("subject", subject))
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("nats drain", zap.Error(err))
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() {}
