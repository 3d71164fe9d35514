package messaging

import (
	"context"
	"time"

	"github.com/feral-file/chain-estates/internal/domain"
)

// EventMessage is the notification published for every committed ledger event.
// Amounts are wei decimal strings so clients never lose precision.
type EventMessage struct {
	InstanceID string           `json:"instance_id"`
	Sequence   uint64           `json:"sequence"`
	Kind       domain.EventKind `json:"kind"`
	PropertyID uint64           `json:"property_id"`
	Owner      *string          `json:"owner,omitempty"`
	Seller     *string          `json:"seller,omitempty"`
	Buyer      *string          `json:"buyer,omitempty"`
	Price      *string          `json:"price,omitempty"`
	Location   *string          `json:"location,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
	PrevHash   string           `json:"prev_hash"`
	Hash       string           `json:"hash"`
}

// NewEventMessage builds the notification for a ledger event
func NewEventMessage(instanceID string, event domain.Event) EventMessage {
	msg := EventMessage{
		InstanceID: instanceID,
		Sequence:   event.Sequence,
		Kind:       event.Kind,
		PropertyID: event.PropertyID,
		Owner:      event.Owner,
		Seller:     event.Seller,
		Buyer:      event.Buyer,
		Location:   event.Location,
		Timestamp:  event.Timestamp,
		PrevHash:   event.PrevHash,
		Hash:       event.Hash,
	}
	if event.Price != nil {
		price := event.Price.String()
		msg.Price = &price
	}
	return msg
}

// Publisher defines the interface for publishing ledger events to a message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a ledger event; publishing the same event twice must be idempotent on the broker
	PublishEvent(ctx context.Context, msg EventMessage) error
	// Close closes the connection
	Close()
}
