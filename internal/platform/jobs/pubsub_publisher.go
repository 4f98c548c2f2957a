package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/huertohogar/storefront/internal/services"
)

// PubSubStockPublisher publishes catalog stock changes to a Pub/Sub topic.
type PubSubStockPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubStockPublisher constructs a Pub/Sub backed stock change publisher.
func NewPubSubStockPublisher(topic *pubsub.Topic) (*PubSubStockPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub stock publisher: topic is required")
	}
	return &PubSubStockPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishStockChange sends change to the configured topic and waits for the server id.
func (p *PubSubStockPublisher) PublishStockChange(ctx context.Context, change services.StockChange) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub stock publisher: not initialised")
	}

	data, err := p.marshal(change)
	if err != nil {
		return "", fmt.Errorf("marshal stock change: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "productId", change.ProductID)
	setAttr(attrs, "reason", change.Reason)
	attrs["stock"] = strconv.Itoa(change.Stock)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:        data,
		Attributes:  attrs,
		OrderingKey: orderingKey(p.topic, change.ProductID),
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish stock change: %w", err)
	}
	return id, nil
}

// PubSubOrderPublisher publishes placed orders to a Pub/Sub topic.
type PubSubOrderPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubOrderPublisher constructs a Pub/Sub backed order publisher.
func NewPubSubOrderPublisher(topic *pubsub.Topic) (*PubSubOrderPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub order publisher: topic is required")
	}
	return &PubSubOrderPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishOrderPlaced enqueues an order placed event on the configured topic.
func (p *PubSubOrderPublisher) PublishOrderPlaced(ctx context.Context, event services.OrderPlacedEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub order publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal order event: %w", err)
	}

	attrs := make(map[string]string)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "customerId", event.CustomerID)
	setAttr(attrs, "deliveryMethod", event.DeliveryMethod)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish order event: %w", err)
	}
	return id, nil
}

// orderingKey keeps stock changes for one product in order when the topic has ordering enabled.
func orderingKey(topic *pubsub.Topic, productID string) string {
	if !topic.EnableMessageOrdering {
		return ""
	}
	return strings.TrimSpace(productID)
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
