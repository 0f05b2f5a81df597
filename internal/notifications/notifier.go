// Package notifications fans purchasing workflow events out to company members over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"stockflow/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// CompanyChannel is the Redis channel carrying a company's workflow events.
func CompanyChannel(companyID uint) string {
	return fmt.Sprintf("purchase_requests:company:%d", companyID)
}

// Envelope is the JSON message published on a company channel.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Notifier publishes workflow events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client makes every publish a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishCompanyEvent wraps payload in an Envelope and publishes it to the company channel.
func (n *Notifier) PublishCompanyEvent(ctx context.Context, companyID uint, eventType string, payload any) error {
	if n.rdb == nil {
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	msg, err := json.Marshal(Envelope{Type: eventType, Payload: body})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}
	return n.rdb.Publish(ctx, CompanyChannel(companyID), msg).Err()
}

// SubscribeCompany delivers the raw envelopes of one company until ctx is done.
func (n *Notifier) SubscribeCompany(ctx context.Context, companyID uint, onMessage func(payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, CompanyChannel(companyID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe company %d: %w", companyID, err)
	}
	go n.pump(ctx, sub, onMessage)
	return nil
}

func (n *Notifier) pump(ctx context.Context, sub *redis.PubSub, onMessage func(payload string)) {
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						middleware.Logger.Error("panic in company event subscriber",
							slog.Any("panic", r),
							slog.String("stack", string(debug.Stack())),
						)
					}
				}()
				onMessage(msg.Payload)
			}()
		}
	}
}
