package types

import (
	"fmt"
	"math/big"

	"github.com/feral-file/chain-estates/internal/adapter"
	"github.com/feral-file/chain-estates/internal/domain"
	"github.com/feral-file/chain-estates/internal/store/schema"
)

// ToDomainProperty converts a property row to the domain model
func ToDomainProperty(p schema.Property) (domain.Property, error) {
	price, err := domain.ParseDecimalWei(p.Price)
	if err != nil {
		return domain.Property{}, fmt.Errorf("property %d: %w", p.ID, err)
	}

	return domain.Property{
		ID:           p.ID,
		Owner:        p.Owner,
		OwnerName:    p.OwnerName,
		Location:     p.Location,
		DocumentHash: p.DocumentHash,
		Price:        price,
		IsForSale:    p.IsForSale,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

// ToDomainProperties converts property rows to domain models
func ToDomainProperties(rows []schema.Property) ([]domain.Property, error) {
	properties := make([]domain.Property, 0, len(rows))
	for _, row := range rows {
		property, err := ToDomainProperty(row)
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}
	return properties, nil
}

// ToDomainEvent converts an event row to the domain model
func ToDomainEvent(json adapter.JSON, e schema.LedgerEvent) (domain.Event, error) {
	event := domain.Event{
		Sequence:   e.ID,
		Kind:       e.Kind,
		PropertyID: e.PropertyID,
		Owner:      e.Owner,
		Seller:     e.Seller,
		Buyer:      e.Buyer,
		Timestamp:  e.Timestamp.UTC(),
		PrevHash:   e.PrevHash,
		Hash:       e.Hash,
	}

	if e.Price != nil {
		price, err := domain.ParseDecimalWei(*e.Price)
		if err != nil {
			return domain.Event{}, fmt.Errorf("event %d: %w", e.ID, err)
		}
		event.Price = price
	}

	if e.Kind == domain.EventKindRegistered && len(e.Payload) > 0 {
		var payload schema.RegisteredPayload
		if err := json.Unmarshal(e.Payload, &payload); err != nil {
			return domain.Event{}, fmt.Errorf("failed to decode payload of event %d: %w", e.ID, err)
		}
		event.Location = Ptr(payload.Location)
	}

	return event, nil
}

// ToDomainEvents converts event rows to domain models
func ToDomainEvents(json adapter.JSON, rows []schema.LedgerEvent) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		event, err := ToDomainEvent(json, row)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// ToDomainAccount converts an account row to the domain model; a nil row is an empty account
func ToDomainAccount(address string, a *schema.Account) (domain.Account, error) {
	if a == nil {
		return domain.Account{Address: address, Balance: new(big.Int)}, nil
	}

	balance, err := domain.ParseDecimalWei(a.Balance)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s: %w", a.Address, err)
	}

	return domain.Account{
		Address: a.Address,
		Balance: balance,
		Frozen:  a.Frozen,
	}, nil
}
