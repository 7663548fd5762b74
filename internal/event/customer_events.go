package event

import (
	"context"
	"time"
)

type CustomerEventPayload struct {
	CustomerID  int64     `json:"customerId"`
	Name        string    `json:"name"`
	Lastname    string    `json:"lastname"`
	PhoneNumber string    `json:"phoneNumber"`
	Email       string    `json:"email"`
	Type        string    `json:"type"`
	AccountID   *int64    `json:"accountId,omitempty"`
	Version     int       `json:"version"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

type CustomerCreatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerUpdatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

func (p *RabbitMQEventPublisher) PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error {
	return p.publish(ctx, routingKeyCustomerCreated, event)
}

func (p *RabbitMQEventPublisher) PublishCustomerUpdated(ctx context.Context, event CustomerUpdatedEvent) error {
	return p.publish(ctx, routingKeyCustomerUpdated, event)
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)
