package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/store/schema"
)

// eventBody is the hashed part of a ledger event. The hash and the row bookkeeping columns are excluded.
type eventBody struct {
	Sequence   uint64          `json:"sequence"`
	Kind       string          `json:"kind"`
	PropertyID uint64          `json:"property_id"`
	Owner      *string         `json:"owner,omitempty"`
	Seller     *string         `json:"seller,omitempty"`
	Buyer      *string         `json:"buyer,omitempty"`
	Price      *string         `json:"price,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

// EventSealer computes the hash chain links of ledger events
type EventSealer struct {
	json adapter.JSON
	jcs  adapter.JCS
}

// NewEventSealer creates a new event sealer
func NewEventSealer(json adapter.JSON, jcs adapter.JCS) *EventSealer {
	return &EventSealer{json: json, jcs: jcs}
}

func defaultEventSealer() *EventSealer {
	return NewEventSealer(adapter.NewJSON(), adapter.NewJCS())
}

// CanonicalBody returns the RFC 8785 canonical JSON of the hashed fields of an event
func (s *EventSealer) CanonicalBody(event *schema.LedgerEvent) ([]byte, error) {
	body := eventBody{
		Sequence:   event.ID,
		Kind:       string(event.Kind),
		PropertyID: event.PropertyID,
		Owner:      event.Owner,
		Seller:     event.Seller,
		Buyer:      event.Buyer,
		Price:      event.Price,
		Timestamp:  NormalizeTimestamp(event.Timestamp).Format(time.RFC3339Nano),
	}
	if len(event.Payload) > 0 {
		body.Payload = json.RawMessage(event.Payload)
	}

	raw, err := s.json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event body: %w", err)
	}

	canonical, err := s.jcs.Canonicalize(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize event body: %w", err)
	}

	return canonical, nil
}

// Hash computes the hash of an event linked to prevHash
func (s *EventSealer) Hash(prevHash string, event *schema.LedgerEvent) (string, error) {
	body, err := s.CanonicalBody(event)
	if err != nil {
		return "", err
	}
	return domain.EventHash(prevHash, body), nil
}

// Seal links the event to prevHash and stores the resulting hash on the event
func (s *EventSealer) Seal(prevHash string, event *schema.LedgerEvent) error {
	hash, err := s.Hash(prevHash, event)
	if err != nil {
		return err
	}

	event.PrevHash = prevHash
	event.Hash = hash
	return nil
}

// NormalizeTimestamp truncates to the precision Postgres keeps for timestamptz
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// newLedgerEvent builds an unsequenced event row for a property
func newLedgerEvent(propertyID uint64, input CreateLedgerEventInput) (schema.LedgerEvent, error) {
	if !domain.IsValidEventKind(input.Kind) {
		return schema.LedgerEvent{}, fmt.Errorf("unknown event kind: %s", input.Kind)
	}

	event := schema.LedgerEvent{
		Kind:       input.Kind,
		PropertyID: propertyID,
		Owner:      input.Owner,
		Seller:     input.Seller,
		Buyer:      input.Buyer,
		Timestamp:  NormalizeTimestamp(input.Timestamp),
	}
	if input.Price != nil {
		price := input.Price.String()
		event.Price = &price
	}
	if len(input.Payload) > 0 {
		event.Payload = append([]byte(nil), input.Payload...)
	}

	return event, nil
}
